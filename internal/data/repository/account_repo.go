package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const accountColumns = `id, email, phone, name, account_kind, business_name, password,
		       verified_email, verified_phone, is_verified, verified_at, created_at, updated_at`

type accountRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAccountRepository(db database.PgxIface, log *zap.Logger) AccountRepository {
	return &accountRepository{
		db:  db,
		log: log.With(zap.String("repository", "account")),
	}
}

// Create relies on the unique index over (LOWER(email), account_kind) so that
// two concurrent registrations cannot both succeed.
func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	query := `
		INSERT INTO accounts (id, email, phone, name, account_kind, business_name, password,
		                      verified_email, verified_phone, is_verified, verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Email,
		account.Phone,
		account.Name,
		account.Kind,
		account.BusinessName,
		account.PasswordHash,
		account.VerifiedEmail,
		account.VerifiedPhone,
		account.IsVerified,
		account.VerifiedAt,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateAccount
		}
		r.log.Error("Failed to create account",
			zap.Error(err),
			zap.String("email", account.Email),
			zap.String("account_kind", string(account.Kind)),
		)
		return fmt.Errorf("create account %s: %w", account.Email, err)
	}

	return nil
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find account by ID", zap.Error(err), zap.String("account_id", id.String()))
		return nil, fmt.Errorf("find account by ID %s: %w", id.String(), err)
	}

	return account, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
		ORDER BY created_at ASC
		LIMIT 1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find account by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("find account by email %s: %w", email, err)
	}

	return account, nil
}

func (r *accountRepository) FindAllByEmail(ctx context.Context, email string) ([]*entity.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		r.log.Error("Failed to list accounts by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("find all accounts by email %s: %w", email, err)
	}
	defer rows.Close()

	var accounts []*entity.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			r.log.Error("Failed to scan account row", zap.Error(err))
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}

	return accounts, nil
}

func (r *accountRepository) FindByEmailAndKind(ctx context.Context, email string, kind entity.AccountKind) (*entity.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1) AND account_kind = $2`

	account, err := scanAccount(r.db.QueryRow(ctx, query, email, kind))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find account by email and kind",
			zap.Error(err),
			zap.String("email", email),
			zap.String("account_kind", string(kind)),
		)
		return nil, fmt.Errorf("find %s account by email %s: %w", kind, email, err)
	}

	return account, nil
}

func (r *accountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1))`

	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		r.log.Error("Failed to check email", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("check email %s: %w", email, err)
	}

	return exists, nil
}

func (r *accountRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE phone = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, phone).Scan(&exists); err != nil {
		r.log.Error("Failed to check phone", zap.Error(err), zap.String("phone", phone))
		return false, fmt.Errorf("check phone %s: %w", phone, err)
	}

	return exists, nil
}

func (r *accountRepository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE accounts
		SET is_verified = true, verified_email = true, verified_phone = true,
		    verified_at = COALESCE(verified_at, $2), updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to mark account verified", zap.Error(err), zap.String("account_id", id.String()))
		return false, fmt.Errorf("mark account %s verified: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Phone,
		&a.Name,
		&a.Kind,
		&a.BusinessName,
		&a.PasswordHash,
		&a.VerifiedEmail,
		&a.VerifiedPhone,
		&a.IsVerified,
		&a.VerifiedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
