package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type codeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCodeRepository(db database.PgxIface, log *zap.Logger) CodeRepository {
	return &codeRepository{
		db:  db,
		log: log.With(zap.String("repository", "verification_code")),
	}
}

func (r *codeRepository) Create(ctx context.Context, code *entity.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (id, contact, channel, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		code.ID,
		code.Contact,
		code.Channel,
		code.Code,
		code.ExpiresAt,
		code.Used,
		code.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create verification code",
			zap.Error(err),
			zap.String("contact", code.Contact),
			zap.String("channel", string(code.Channel)),
		)
		return fmt.Errorf("create verification code for %s: %w", code.Contact, err)
	}

	return nil
}

// Consume is a single conditional UPDATE: the row is locked by the subquery and
// the outer "used = false" guard makes the write a compare-and-set, so two
// concurrent callers can never both get the same row back.
func (r *codeRepository) Consume(ctx context.Context, contact string, channel entity.Channel, code string, now time.Time) (*entity.VerificationCode, error) {
	query := `
		UPDATE verification_codes
		SET used = true, used_at = $4
		WHERE id = (
			SELECT id FROM verification_codes
			WHERE contact = $1
			  AND channel = $2
			  AND code = $3
			  AND used = false
			  AND expires_at > $4
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		  AND used = false
		RETURNING id, contact, channel, code, expires_at, used, used_at, created_at
	`

	var c entity.VerificationCode
	err := r.db.QueryRow(ctx, query, contact, channel, code, now).Scan(
		&c.ID,
		&c.Contact,
		&c.Channel,
		&c.Code,
		&c.ExpiresAt,
		&c.Used,
		&c.UsedAt,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to consume verification code",
			zap.Error(err),
			zap.String("contact", contact),
			zap.String("channel", string(channel)),
		)
		return nil, fmt.Errorf("consume verification code for %s: %w", contact, err)
	}

	return &c, nil
}

func (r *codeRepository) InvalidateActive(ctx context.Context, contact string, channel entity.Channel, now time.Time) (int64, error) {
	query := `
		UPDATE verification_codes
		SET used = true, used_at = $3
		WHERE contact = $1 AND channel = $2 AND used = false AND expires_at > $3
	`

	result, err := r.db.Exec(ctx, query, contact, channel, now)
	if err != nil {
		r.log.Error("Failed to invalidate verification codes",
			zap.Error(err),
			zap.String("contact", contact),
			zap.String("channel", string(channel)),
		)
		return 0, fmt.Errorf("invalidate codes for %s: %w", contact, err)
	}

	return result.RowsAffected(), nil
}

func (r *codeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM verification_codes WHERE expires_at < $1`

	result, err := r.db.Exec(ctx, query, now)
	if err != nil {
		r.log.Error("Failed to delete expired verification codes", zap.Error(err))
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}

	return result.RowsAffected(), nil
}
