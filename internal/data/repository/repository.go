package repository

import (
	"context"
	"errors"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/pkg/database"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrDuplicateAccount is returned by AccountRepository.Create when an account
// with the same email (case-insensitive) and kind already exists.
var ErrDuplicateAccount = errors.New("account already exists for email and kind")

type AccountRepository interface {
	// Create inserts a pending account. The uniqueness check and the insert
	// happen as one operation.
	Create(ctx context.Context, account *entity.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	// FindByEmail returns the oldest account for the email, or nil.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindAllByEmail(ctx context.Context, email string) ([]*entity.Account, error)
	FindByEmailAndKind(ctx context.Context, email string, kind entity.AccountKind) (*entity.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	// MarkVerified reports false, without error, when the id is unknown.
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type CodeRepository interface {
	Create(ctx context.Context, code *entity.VerificationCode) error
	// Consume atomically marks the newest matching unused, unexpired code as
	// used and returns it. It returns nil, nil when nothing matches.
	Consume(ctx context.Context, contact string, channel entity.Channel, code string, now time.Time) (*entity.VerificationCode, error)
	// InvalidateActive marks every consumable code for (contact, channel) used.
	InvalidateActive(ctx context.Context, contact string, channel entity.Channel, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindValidSession(ctx context.Context, token string, now time.Time) (*entity.Session, error)
	Revoke(ctx context.Context, token string, now time.Time) error
	CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Repository struct {
	Account AccountRepository
	Code    CodeRepository
	Session SessionRepository
}

// NewRepository builds the Postgres-backed repositories.
func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Account: NewAccountRepository(db, log),
		Code:    NewCodeRepository(db, log),
		Session: NewSessionRepository(db, log),
	}
}

// NewMemoryRepository builds process-local repositories. Each call returns an
// independent store.
func NewMemoryRepository() *Repository {
	return &Repository{
		Account: NewMemoryAccountRepository(),
		Code:    NewMemoryCodeRepository(),
		Session: NewMemorySessionRepository(),
	}
}

// WithRedisCodes swaps the code store for the Redis implementation.
func (r *Repository) WithRedisCodes(client *redis.Client, log *zap.Logger) *Repository {
	r.Code = NewRedisCodeRepository(client, log)
	return r
}
