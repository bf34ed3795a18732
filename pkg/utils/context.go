package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	AccountIDKey   contextKey = "account_id"
	AccountKindKey contextKey = "account_kind"
	TokenKey       contextKey = "token"
)

func GetAccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(AccountIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func GetAccountKindFromContext(ctx context.Context) (string, bool) {
	kind, ok := ctx.Value(AccountKindKey).(string)
	return kind, ok
}

func SetAccountContext(ctx context.Context, accountID uuid.UUID, kind string) context.Context {
	ctx = context.WithValue(ctx, AccountIDKey, accountID)
	ctx = context.WithValue(ctx, AccountKindKey, kind)
	return ctx
}

// GetTokenFromContext returns the bearer token the session middleware accepted.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

type ClientInfo struct {
	UserAgent string
	IPAddress string
}

const clientInfoKey contextKey = "client_info"

func SetClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey, info)
}

func GetClientInfo(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey).(ClientInfo)
	return info
}
