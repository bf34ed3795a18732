package usecase

import (
	"pesa-smart-plan/internal/data/repository"
	"pesa-smart-plan/pkg/metrics"
	"pesa-smart-plan/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Account      AccountService
	Code         CodeService
	Registration RegistrationService
}

func NewService(repo *repository.Repository, notifier CodeDeliverer, config *utils.Config, rec metrics.Recorder, log *zap.Logger) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}

	account := NewAccountService(repo, config, log)
	code := NewCodeService(repo.Code, notifier, config, rec, log)

	return &Service{
		Account:      account,
		Code:         code,
		Registration: NewRegistrationService(account, code, config, rec, log),
	}
}
