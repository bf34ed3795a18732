package adaptor

import (
	"pesa-smart-plan/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Code         *CodeHandler
	Registration *RegistrationHandler
	Account      *AccountHandler
	Fee          *FeeHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Code:         NewCodeHandler(service.Code, log),
		Registration: NewRegistrationHandler(service.Registration, log),
		Account:      NewAccountHandler(service.Account, log),
		Fee:          NewFeeHandler(log),
	}
}
