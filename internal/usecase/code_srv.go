package usecase

import (
	"context"
	"fmt"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/data/repository"
	"pesa-smart-plan/pkg/metrics"
	"pesa-smart-plan/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CodeDeliverer sends an issued code to its contact. *notify.Dispatcher
// satisfies it.
type CodeDeliverer interface {
	Deliver(ctx context.Context, channel entity.Channel, contact, code string, ttl time.Duration) error
}

type CodeService interface {
	// Issue stores a fresh code for (contact, channel) and then tries to
	// deliver it. Delivery failures are logged, never returned.
	Issue(ctx context.Context, contact string, channel entity.Channel) error
	// Verify consumes a matching code. Any mismatch is ErrInvalidCode.
	Verify(ctx context.Context, contact string, channel entity.Channel, code string) error
	Cleanup(ctx context.Context) (int64, error)
}

type codeService struct {
	codes    repository.CodeRepository
	notifier CodeDeliverer
	config   *utils.Config
	metrics  metrics.Recorder
	log      *zap.Logger
	now      func() time.Time
	generate func() (string, error)
}

func NewCodeService(codes repository.CodeRepository, notifier CodeDeliverer, config *utils.Config, rec metrics.Recorder, log *zap.Logger) CodeService {
	return &codeService{
		codes:    codes,
		notifier: notifier,
		config:   config,
		metrics:  rec,
		log:      log.With(zap.String("service", "code")),
		now:      time.Now,
		generate: utils.GenerateOTP,
	}
}

func validateContact(contact string, channel entity.Channel) error {
	fields := map[string]string{}
	if !channel.Valid() {
		fields["Type"] = "Must be one of: email, phone"
	}
	if contact == "" {
		fields["Contact"] = "This field is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *codeService) Issue(ctx context.Context, contact string, channel entity.Channel) error {
	contact = entity.NormalizeContact(channel, contact)
	if err := validateContact(contact, channel); err != nil {
		return err
	}

	// 1. Generate
	value, err := s.generate()
	if err != nil {
		s.log.Error("Failed to generate code", zap.Error(err))
		return err
	}

	now := s.now()
	ttl := s.config.OTP.CodeTTL()
	code := &entity.VerificationCode{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		Contact:   contact,
		Channel:   channel,
		Code:      value,
		ExpiresAt: now.Add(ttl),
	}

	// 2. Optionally retire outstanding codes
	if s.config.OTP.InvalidateOnReissue {
		n, err := s.codes.InvalidateActive(ctx, contact, channel, now)
		if err != nil {
			return err
		}
		if n > 0 {
			s.log.Debug("Invalidated outstanding codes", zap.Int64("count", n), zap.String("channel", string(channel)))
		}
	}

	// 3. Persist before any delivery attempt
	if err := s.codes.Create(ctx, code); err != nil {
		return err
	}
	s.metrics.CodeIssued(string(channel))

	// 4. Deliver, detached from the caller's cancellation
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deliveryTimeout())
	defer cancel()

	if err := s.notifier.Deliver(dctx, channel, contact, value, ttl); err != nil {
		s.metrics.DeliveryFailed(string(channel))
		s.log.Warn("Verification code stored but delivery failed",
			zap.Error(err),
			zap.String("channel", string(channel)),
			zap.String("code_id", code.ID.String()),
		)
		return nil
	}

	s.log.Info("Verification code issued",
		zap.String("channel", string(channel)),
		zap.String("code_id", code.ID.String()),
		zap.Time("expires_at", code.ExpiresAt),
	)
	return nil
}

func (s *codeService) Verify(ctx context.Context, contact string, channel entity.Channel, code string) error {
	contact = entity.NormalizeContact(channel, contact)
	if err := validateContact(contact, channel); err != nil {
		return err
	}

	now := s.now()

	// 1. Garbage collection, not needed for correctness
	if _, err := s.codes.DeleteExpired(ctx, now); err != nil {
		s.log.Warn("Expired code cleanup failed", zap.Error(err))
	}

	if !utils.IsOTPFormat(code) {
		s.metrics.CodeVerified(string(channel), false)
		return ErrInvalidCode
	}

	// 2. Atomic consume
	consumed, err := s.codes.Consume(ctx, contact, channel, code, now)
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	if consumed == nil {
		s.metrics.CodeVerified(string(channel), false)
		s.log.Info("Verification failed", zap.String("channel", string(channel)))
		return ErrInvalidCode
	}

	s.metrics.CodeVerified(string(channel), true)
	s.log.Info("Verification code consumed",
		zap.String("channel", string(channel)),
		zap.String("code_id", consumed.ID.String()),
	)
	return nil
}

func (s *codeService) Cleanup(ctx context.Context) (int64, error) {
	return s.codes.DeleteExpired(ctx, s.now())
}

func (s *codeService) deliveryTimeout() time.Duration {
	if s.config.OTP.DeliveryTimeout <= 0 {
		return 10 * time.Second
	}
	return s.config.OTP.DeliveryTimeout
}
