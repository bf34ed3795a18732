package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/usecase"
	"pesa-smart-plan/pkg/utils"

	"go.uber.org/zap"
)

// SessionValidator resolves a bearer token to its session and account.
// usecase.AccountService satisfies it.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*entity.Session, *entity.Account, error)
}

// AuthSession rejects requests without a live session and puts the account
// and token into the request context.
func AuthSession(sessions SessionValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}
			token = strings.TrimSpace(token)

			// 2. Resolve session
			_, account, err := sessions.ValidateSession(r.Context(), token)
			if errors.Is(err, usecase.ErrSessionInvalid) {
				logger.Debug("Invalid or expired session", zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}
			if err != nil {
				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			// 3. Account and token for handlers
			ctx := utils.SetAccountContext(r.Context(), account.ID, string(account.Kind))
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
