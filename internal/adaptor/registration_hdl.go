package adaptor

import (
	"encoding/json"
	"net/http"

	"pesa-smart-plan/internal/dto/request"
	"pesa-smart-plan/internal/usecase"
	"pesa-smart-plan/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RegistrationHandler struct {
	service usecase.RegistrationService
	log     *zap.Logger
}

func NewRegistrationHandler(service usecase.RegistrationService, log *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		log:     log,
	}
}

// Register handles POST /api/register
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "register")
		return
	}

	if resp.Error != "" {
		// Account exists but the first code never went out.
		utils.ResponseJSON(w, http.StatusAccepted, true, resp.Error, resp, nil)
		return
	}
	utils.ResponseCreated(w, "Registration started. Enter the code we sent you.", resp)
}

// Get handles GET /api/register/{id}
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "get registration")
		return
	}

	utils.ResponseSuccess(w, "Registration retrieved successfully", resp)
}

// Resend handles POST /api/register/{id}/resend
func (h *RegistrationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req request.ResendCodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Resend(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "resend code")
		return
	}

	utils.ResponseSuccess(w, "Verification code sent", resp)
}

// Confirm handles POST /api/register/{id}/confirm
func (h *RegistrationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmCodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Confirm(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "confirm code")
		return
	}

	utils.ResponseSuccess(w, "Account verified successfully", resp)
}

// Login handles POST /api/login
func (h *RegistrationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}
