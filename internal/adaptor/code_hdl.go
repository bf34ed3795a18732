package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/dto/request"
	"pesa-smart-plan/internal/dto/response"
	"pesa-smart-plan/internal/usecase"
	"pesa-smart-plan/pkg/middleware"
	"pesa-smart-plan/pkg/utils"

	"go.uber.org/zap"
)

// CodeHandler serves the standalone code endpoints. Their bodies are
// {success, message} or {error}, not the standard envelope, because mobile
// and web clients already depend on that shape.
type CodeHandler struct {
	service usecase.CodeService
	log     *zap.Logger
}

func NewCodeHandler(service usecase.CodeService, log *zap.Logger) *CodeHandler {
	return &CodeHandler{
		service: service,
		log:     log,
	}
}

// SendCode handles POST /api/send-code
func (h *CodeHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req request.SendCodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, response.ErrorResult{Error: "Invalid request body"})
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.WriteJSON(w, http.StatusBadRequest, response.ErrorResult{Error: utils.FormatValidationErrors(validationErrors)})
		return
	}

	if err := h.service.Issue(r.Context(), req.Contact(), entity.Channel(req.Type)); err != nil {
		h.writeError(w, r, err, "send code")
		return
	}

	utils.WriteJSON(w, http.StatusOK, response.CodeResult{Success: true, Message: "Verification code sent"})
}

// VerifyCode handles POST /api/verify-code
func (h *CodeHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyCodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, response.ErrorResult{Error: "Invalid request body"})
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.WriteJSON(w, http.StatusBadRequest, response.ErrorResult{Error: utils.FormatValidationErrors(validationErrors)})
		return
	}

	err := h.service.Verify(r.Context(), req.Contact(), entity.Channel(req.Type), req.Code)
	if errors.Is(err, usecase.ErrInvalidCode) {
		utils.WriteJSON(w, http.StatusBadRequest, response.CodeResult{Success: false, Message: "Invalid or expired verification code"})
		return
	}
	if err != nil {
		h.writeError(w, r, err, "verify code")
		return
	}

	utils.WriteJSON(w, http.StatusOK, response.CodeResult{Success: true, Message: "Verification successful"})
}

func (h *CodeHandler) writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var validation *usecase.ValidationError
	if errors.As(err, &validation) {
		utils.WriteJSON(w, http.StatusBadRequest, response.ErrorResult{Error: utils.FormatValidationErrors(validation.Fields)})
		return
	}

	h.log.Error("Failed to "+operation, zap.Error(err))
	middleware.RecordError(r, err)
	utils.WriteJSON(w, http.StatusInternalServerError, response.ErrorResult{Error: "Failed to " + operation})
}
