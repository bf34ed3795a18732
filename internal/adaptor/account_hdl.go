package adaptor

import (
	"encoding/json"
	"net/http"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/dto/request"
	"pesa-smart-plan/internal/dto/response"
	"pesa-smart-plan/internal/usecase"
	"pesa-smart-plan/pkg/utils"

	"go.uber.org/zap"
)

// AccountHandler serves the authenticated routes. AuthSession must run first.
type AccountHandler struct {
	service usecase.AccountService
	log     *zap.Logger
}

func NewAccountHandler(service usecase.AccountService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		log:     log,
	}
}

// Me handles GET /api/accounts/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	account, err := h.service.FindByID(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "get account")
		return
	}
	if account == nil {
		utils.ResponseNotFound(w, usecase.ErrAccountNotFound.Error())
		return
	}

	utils.ResponseSuccess(w, "Account retrieved successfully", response.AccountToResponse(account))
}

// Logout handles POST /api/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, h.log, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logout successful", nil)
}

// Switch handles POST /api/accounts/switch
func (h *AccountHandler) Switch(w http.ResponseWriter, r *http.Request) {
	token, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.SwitchAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	account, session, err := h.service.SwitchAccount(r.Context(), token, entity.AccountKind(req.AccountKind))
	if err != nil {
		writeServiceError(w, r, h.log, err, "switch account")
		return
	}

	utils.ResponseSuccess(w, "Switched account successfully", response.AuthToResponse(account, session))
}
