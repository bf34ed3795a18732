package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/data/repository"
	"pesa-smart-plan/pkg/utils"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

type CreateAccountParams struct {
	Email        string
	Phone        string
	Name         string
	Kind         entity.AccountKind
	BusinessName string
	Password     string
}

type AccountService interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindAllByEmail(ctx context.Context, email string) ([]*entity.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	Create(ctx context.Context, params CreateAccountParams) (uuid.UUID, error)
	MarkVerified(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	Authenticate(ctx context.Context, email, password string) (*entity.Account, error)
	AuthenticateAs(ctx context.Context, email, password string, kind entity.AccountKind) (*entity.Account, error)
	StartSession(ctx context.Context, accountID uuid.UUID) (*entity.Session, error)
	ValidateSession(ctx context.Context, token string) (*entity.Session, *entity.Account, error)
	Logout(ctx context.Context, token string) error
	SwitchAccount(ctx context.Context, token string, kind entity.AccountKind) (*entity.Account, *entity.Session, error)
}

type accountService struct {
	repo     *repository.Repository
	config   *utils.Config
	log      *zap.Logger
	sanitize *bluemonday.Policy
	now      func() time.Time
}

func NewAccountService(repo *repository.Repository, config *utils.Config, log *zap.Logger) AccountService {
	return &accountService{
		repo:     repo,
		config:   config,
		log:      log.With(zap.String("service", "account")),
		sanitize: bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

func (s *accountService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.Account.EmailExists(ctx, entity.NormalizeEmail(email))
}

func (s *accountService) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return s.repo.Account.PhoneExists(ctx, strings.TrimSpace(phone))
}

func (s *accountService) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return s.repo.Account.FindByEmail(ctx, entity.NormalizeEmail(email))
}

func (s *accountService) FindAllByEmail(ctx context.Context, email string) ([]*entity.Account, error) {
	return s.repo.Account.FindAllByEmail(ctx, entity.NormalizeEmail(email))
}

func (s *accountService) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return s.repo.Account.FindByID(ctx, id)
}

func (s *accountService) Create(ctx context.Context, params CreateAccountParams) (uuid.UUID, error) {
	// 1. Kind and business name go together
	if !params.Kind.Valid() {
		return uuid.Nil, &ValidationError{Fields: map[string]string{"AccountKind": "Must be one of: customer, business"}}
	}
	businessName := s.clean(params.BusinessName)
	if params.Kind == entity.KindBusiness && businessName == "" {
		return uuid.Nil, &ValidationError{Fields: map[string]string{"BusinessName": "This field is required"}}
	}

	// 2. Hash password
	hash, err := utils.HashPassword(params.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to process password: %w", err)
	}

	// 3. Build pending account
	now := s.now()
	account := &entity.Account{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        entity.NormalizeEmail(params.Email),
		Phone:        strings.TrimSpace(params.Phone),
		Name:         s.clean(params.Name),
		Kind:         params.Kind,
		PasswordHash: hash,
	}
	if params.Kind == entity.KindBusiness {
		account.BusinessName = &businessName
	}

	// 4. Insert; uniqueness is enforced by the store
	if err := s.repo.Account.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			s.log.Info("Duplicate registration rejected",
				zap.String("email", account.Email),
				zap.String("account_kind", string(account.Kind)),
			)
			return uuid.Nil, &DuplicateAccountError{Email: account.Email, Kind: account.Kind}
		}
		return uuid.Nil, err
	}

	s.log.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("account_kind", string(account.Kind)),
	)
	return account.ID, nil
}

// MarkVerified flags every channel verified and opens a session. An unknown id
// is a no-op and yields a nil session.
func (s *accountService) MarkVerified(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	ok, err := s.repo.Account.MarkVerified(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Warn("MarkVerified on unknown account", zap.String("account_id", id.String()))
		return nil, nil
	}

	s.log.Info("Account verified", zap.String("account_id", id.String()))
	return s.StartSession(ctx, id)
}

// Authenticate returns the oldest verified account for email whose password
// matches, or nil.
func (s *accountService) Authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	accounts, err := s.FindAllByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.IsVerified && utils.CheckPasswordHash(password, a.PasswordHash) {
			return a, nil
		}
	}
	return nil, nil
}

// AuthenticateAs is Authenticate scoped to one kind. When only an account of
// the other kind matches it returns a KindMismatchError.
func (s *accountService) AuthenticateAs(ctx context.Context, email, password string, kind entity.AccountKind) (*entity.Account, error) {
	accounts, err := s.FindAllByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	var other *entity.Account
	for _, a := range accounts {
		if !a.IsVerified || !utils.CheckPasswordHash(password, a.PasswordHash) {
			continue
		}
		if a.Kind == kind {
			return a, nil
		}
		other = a
	}

	if other != nil {
		return nil, &KindMismatchError{Requested: kind, Actual: other.Kind}
	}
	return nil, ErrInvalidCredentials
}

func (s *accountService) StartSession(ctx context.Context, accountID uuid.UUID) (*entity.Session, error) {
	now := s.now()
	client := utils.GetClientInfo(ctx)
	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		AccountID: accountID,
		Token:     utils.GenerateSessionToken(),
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		ExpiresAt: now.Add(s.config.Session.TTL()),
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("account_id", accountID.String()))
		return nil, err
	}

	return session, nil
}

func (s *accountService) ValidateSession(ctx context.Context, token string) (*entity.Session, *entity.Account, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, nil, ErrSessionInvalid
	}

	session, err := s.repo.Session.FindValidSession(ctx, token, s.now())
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrSessionInvalid
	}

	account, err := s.repo.Account.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrSessionInvalid
	}

	return session, account, nil
}

func (s *accountService) Logout(ctx context.Context, token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrSessionInvalid
	}

	if err := s.repo.Session.Revoke(ctx, token, s.now()); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionInvalid
		}
		return err
	}

	s.log.Info("Session revoked")
	return nil
}

// SwitchAccount moves a session to the caller's other account kind. The target
// must share the email and be verified. The old session is revoked.
func (s *accountService) SwitchAccount(ctx context.Context, token string, kind entity.AccountKind) (*entity.Account, *entity.Session, error) {
	_, current, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if current.Kind == kind {
		return nil, nil, &ValidationError{Fields: map[string]string{"AccountKind": "Already using this account type"}}
	}

	target, err := s.repo.Account.FindByEmailAndKind(ctx, current.Email, kind)
	if err != nil {
		return nil, nil, err
	}
	if target == nil || !target.IsVerified {
		return nil, nil, ErrAccountNotFound
	}

	session, err := s.StartSession(ctx, target.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.Session.Revoke(ctx, token, s.now()); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		s.log.Warn("Failed to revoke previous session", zap.Error(err))
	}

	s.log.Info("Account switched",
		zap.String("from", current.ID.String()),
		zap.String("to", target.ID.String()),
	)
	return target, session, nil
}

// maxEntityDepth bounds how many layers of entity encoding clean unwraps.
const maxEntityDepth = 4

// clean strips markup from free-text profile fields and stores plain text.
// Entities are decoded before sanitizing so encoded tags cannot slip through.
func (s *accountService) clean(v string) string {
	for range maxEntityDepth {
		decoded := html.UnescapeString(v)
		if decoded == v {
			break
		}
		v = decoded
	}
	return strings.TrimSpace(html.UnescapeString(s.sanitize.Sanitize(v)))
}
