package usecase

import (
	"context"
	"errors"
	"maps"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/dto/request"
	"pesa-smart-plan/internal/dto/response"
	"pesa-smart-plan/pkg/metrics"
	"pesa-smart-plan/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RegistrationService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.RegistrationResponse, error)
	Resend(ctx context.Context, id string, req *request.ResendCodeRequest) (*response.RegistrationResponse, error)
	Confirm(ctx context.Context, id string, req *request.ConfirmCodeRequest) (*response.RegistrationResponse, error)
	Get(ctx context.Context, id string) (*response.RegistrationResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	// Prune forgets attempts idle for longer than ttl and reports how many.
	Prune(ttl time.Duration) int
}

type registrationService struct {
	accounts AccountService
	codes    CodeService
	attempts *attemptStore
	config   *utils.Config
	metrics  metrics.Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewRegistrationService(accounts AccountService, codes CodeService, config *utils.Config, rec metrics.Recorder, log *zap.Logger) RegistrationService {
	return &registrationService{
		accounts: accounts,
		codes:    codes,
		attempts: newAttemptStore(),
		config:   config,
		metrics:  rec,
		log:      log.With(zap.String("service", "registration")),
		now:      time.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, req *request.RegisterRequest) (*response.RegistrationResponse, error) {
	// 1. Validate form
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	channel := entity.ChannelEmail
	if req.Channel != "" {
		channel = entity.Channel(req.Channel)
	}

	now := s.now()
	attempt := Attempt{
		ID:        uuid.New(),
		Email:     entity.NormalizeEmail(req.Email),
		Phone:     entity.NormalizeContact(entity.ChannelPhone, req.Phone),
		Kind:      entity.AccountKind(req.AccountKind),
		State:     Idle{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.attempts.put(attempt)

	// 2. Phone reuse is reported, not enforced
	if taken, err := s.accounts.PhoneExists(ctx, attempt.Phone); err != nil {
		s.log.Warn("Phone lookup failed", zap.Error(err))
	} else if taken {
		s.log.Warn("Phone number already used by another account", zap.String("attempt_id", attempt.ID.String()))
	}

	// 3. Create pending account
	accountID, err := s.accounts.Create(ctx, CreateAccountParams{
		Email:        req.Email,
		Phone:        req.Phone,
		Name:         req.Name,
		Kind:         attempt.Kind,
		BusinessName: req.BusinessName,
		Password:     req.Password,
	})
	if err != nil {
		var dup *DuplicateAccountError
		if errors.As(err, &dup) {
			s.metrics.RegistrationOutcome("duplicate")
		} else {
			s.metrics.RegistrationOutcome("error")
		}
		_, _ = s.attempts.transition(attempt.ID, s.now(), func(Attempt) (State, error) {
			return Failed{Err: err}, nil
		})
		return nil, err
	}

	attempt, err = s.attempts.transition(attempt.ID, s.now(), func(a Attempt) (State, error) {
		if _, ok := a.State.(Idle); !ok {
			return nil, ErrInvalidState
		}
		return AccountCreated{AccountID: accountID}, nil
	})
	if err != nil {
		return nil, err
	}

	// 4. Issue the first code
	contact := attempt.ContactFor(channel)
	if err := s.codes.Issue(ctx, contact, channel); err != nil {
		s.metrics.RegistrationOutcome("issue_failed")
		s.log.Error("Failed to issue code after account creation",
			zap.Error(err),
			zap.String("attempt_id", attempt.ID.String()),
		)
		resp := s.toResponse(attempt)
		resp.Error = "Account created but the verification code could not be sent. Please request a new code."
		return resp, nil
	}

	sentAt := s.now()
	attempt, err = s.attempts.transition(attempt.ID, sentAt, func(a Attempt) (State, error) {
		created, ok := a.State.(AccountCreated)
		if !ok {
			return nil, ErrInvalidState
		}
		return CodeSent{AccountID: created.AccountID}.withSent(channel, contact, sentAt), nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RegistrationOutcome("code_sent")
	s.log.Info("Registration started",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("account_id", accountID.String()),
		zap.String("channel", string(channel)),
	)
	return s.toResponse(attempt), nil
}

func (s *registrationService) Resend(ctx context.Context, id string, req *request.ResendCodeRequest) (*response.RegistrationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	attemptID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRegistrationNotFound
	}
	channel := entity.Channel(req.Channel)

	// 1. Reserve the channel's cooldown slot before anything is sent
	reservedAt := s.now()
	var (
		prev    State
		contact string
	)
	attempt, err := s.attempts.transition(attemptID, reservedAt, func(a Attempt) (State, error) {
		base, err := s.resendable(a, channel, reservedAt)
		if err != nil {
			return nil, err
		}
		prev = a.State
		contact = a.ContactFor(channel)
		return base.withSent(channel, contact, reservedAt), nil
	})
	if err != nil {
		return nil, err
	}

	// 2. Issue outside the lock; give the slot back if nothing was stored
	if err := s.codes.Issue(ctx, contact, channel); err != nil {
		s.release(attemptID, channel, reservedAt, prev)
		return nil, err
	}

	s.log.Info("Verification code resent",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("channel", string(channel)),
	)
	return s.toResponse(attempt), nil
}

// release undoes a Resend reservation for channel. It does nothing once the
// attempt has moved past the reservation.
func (s *registrationService) release(id uuid.UUID, channel entity.Channel, reservedAt time.Time, prev State) {
	_, _ = s.attempts.transition(id, s.now(), func(a Attempt) (State, error) {
		cur, ok := a.State.(CodeSent)
		if !ok || !cur.SentAt[channel].Equal(reservedAt) {
			return nil, ErrInvalidState
		}

		sent := maps.Clone(cur.SentAt)
		delete(sent, channel)
		if p, ok := prev.(CodeSent); ok {
			if at, ok := p.SentAt[channel]; ok {
				sent[channel] = at
			}
		}
		if len(sent) == 0 {
			return AccountCreated{AccountID: cur.AccountID}, nil
		}

		latest, latestAt := channel, time.Time{}
		for ch, at := range sent {
			if at.After(latestAt) {
				latest, latestAt = ch, at
			}
		}
		return CodeSent{AccountID: cur.AccountID, Channel: latest, Contact: a.ContactFor(latest), SentAt: sent}, nil
	})
}

// resendable returns the CodeSent to build on when a code for channel may be
// issued at now.
func (s *registrationService) resendable(a Attempt, channel entity.Channel, now time.Time) (CodeSent, error) {
	switch st := a.State.(type) {
	case AccountCreated:
		return CodeSent{AccountID: st.AccountID}, nil
	case CodeSent:
		if last, ok := st.SentAt[channel]; ok {
			if wait := last.Add(s.config.OTP.ResendCooldown()).Sub(now); wait > 0 {
				return CodeSent{}, &CooldownError{Channel: channel, Remaining: wait}
			}
		}
		return st, nil
	default:
		return CodeSent{}, ErrInvalidState
	}
}

func (s *registrationService) Confirm(ctx context.Context, id string, req *request.ConfirmCodeRequest) (*response.RegistrationResponse, error) {
	// 1. Six digits or nothing reaches the validator
	if !utils.IsOTPFormat(req.Code) {
		return nil, ErrMalformedCode
	}
	attemptID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRegistrationNotFound
	}

	// 2. CodeSent -> Verifying
	attempt, err := s.attempts.transition(attemptID, s.now(), func(a Attempt) (State, error) {
		sent, ok := a.State.(CodeSent)
		if !ok {
			return nil, ErrInvalidState
		}
		return Verifying{CodeSent: sent}, nil
	})
	if err != nil {
		return nil, err
	}
	verifying := attempt.State.(Verifying)

	back := func() {
		_, _ = s.attempts.transition(attemptID, s.now(), func(a Attempt) (State, error) {
			return verifying.CodeSent, nil
		})
	}

	// 3. Validate. Codes sent on an earlier channel stay usable after a switch.
	if err := s.verifyAny(ctx, attempt, verifying.CodeSent, req.Code); err != nil {
		back()
		return nil, err
	}

	// 4. Mark verified, which opens the session
	session, err := s.accounts.MarkVerified(ctx, verifying.AccountID)
	if err != nil {
		back()
		return nil, err
	}
	if session == nil {
		_, _ = s.attempts.transition(attemptID, s.now(), func(Attempt) (State, error) {
			return Failed{Err: ErrAccountNotFound}, nil
		})
		return nil, ErrAccountNotFound
	}

	attempt, err = s.attempts.transition(attemptID, s.now(), func(Attempt) (State, error) {
		return Verified{AccountID: verifying.AccountID, Session: session}, nil
	})
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, verifying.AccountID)
	if err != nil {
		return nil, err
	}

	s.metrics.RegistrationOutcome("verified")
	s.log.Info("Registration verified",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("account_id", verifying.AccountID.String()),
	)

	resp := s.toResponse(attempt)
	if account != nil {
		auth := response.AuthToResponse(account, session)
		resp.Auth = &auth
	}
	return resp, nil
}

func (s *registrationService) verifyAny(ctx context.Context, a Attempt, sent CodeSent, code string) error {
	channels := []entity.Channel{sent.Channel}
	for ch := range sent.SentAt {
		if ch != sent.Channel {
			channels = append(channels, ch)
		}
	}

	for _, ch := range channels {
		err := s.codes.Verify(ctx, a.ContactFor(ch), ch, code)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrInvalidCode) {
			return err
		}
	}
	return ErrInvalidCode
}

func (s *registrationService) Get(_ context.Context, id string) (*response.RegistrationResponse, error) {
	attemptID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRegistrationNotFound
	}
	attempt, ok := s.attempts.get(attemptID)
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	return s.toResponse(attempt), nil
}

func (s *registrationService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	account, err := s.accounts.AuthenticateAs(ctx, req.Email, req.Password, entity.AccountKind(req.AccountKind))
	if err != nil {
		var mismatch *KindMismatchError
		switch {
		case errors.As(err, &mismatch):
			s.metrics.LoginOutcome("kind_mismatch")
		case errors.Is(err, ErrInvalidCredentials):
			s.metrics.LoginOutcome("invalid_credentials")
		default:
			s.metrics.LoginOutcome("error")
		}
		return nil, err
	}

	session, err := s.accounts.StartSession(ctx, account.ID)
	if err != nil {
		s.metrics.LoginOutcome("error")
		return nil, err
	}

	s.metrics.LoginOutcome("success")
	s.log.Info("Account logged in",
		zap.String("account_id", account.ID.String()),
		zap.String("account_kind", string(account.Kind)),
	)

	resp := response.AuthToResponse(account, session)
	return &resp, nil
}

func (s *registrationService) Prune(ttl time.Duration) int {
	return s.attempts.prune(s.now().Add(-ttl))
}

func (s *registrationService) toResponse(a Attempt) *response.RegistrationResponse {
	resp := &response.RegistrationResponse{
		ID:          a.ID.String(),
		State:       string(a.State.Kind()),
		AccountKind: string(a.Kind),
		UpdatedAt:   a.UpdatedAt,
	}
	if id := a.accountID(); id != uuid.Nil {
		resp.AccountID = id.String()
	}

	var sent CodeSent
	switch st := a.State.(type) {
	case CodeSent:
		sent = st
	case Verifying:
		sent = st.CodeSent
	case Failed:
		resp.Error = st.Err.Error()
	}

	if sent.Channel != "" {
		resp.Channel = string(sent.Channel)
		resp.Contact = sent.Contact
		resp.ResendAfter = make(map[string]time.Time, len(sent.SentAt))
		for ch, at := range sent.SentAt {
			resp.ResendAfter[string(ch)] = at.Add(s.config.OTP.ResendCooldown())
		}
	}
	return resp
}
