package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/usecase"
	"pesa-smart-plan/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSessions struct {
	account *entity.Account
	err     error
	token   string
}

func (s *stubSessions) ValidateSession(_ context.Context, token string) (*entity.Session, *entity.Account, error) {
	s.token = token
	if s.err != nil {
		return nil, nil, s.err
	}
	return &entity.Session{AccountID: s.account.ID}, s.account, nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthSession(t *testing.T) {
	account := &entity.Account{Kind: entity.KindBusiness}
	account.ID = uuid.New()
	token := uuid.NewString()

	tests := []struct {
		name       string
		header     string
		err        error
		wantStatus int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized},
		{"no token", "Bearer ", nil, http.StatusUnauthorized},
		{"invalid session", "Bearer " + token, usecase.ErrSessionInvalid, http.StatusUnauthorized},
		{"store failure", "Bearer " + token, errors.New("db down"), http.StatusInternalServerError},
		{"valid", "Bearer " + token, nil, http.StatusOK},
		{"lowercase scheme", "bearer " + token, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &stubSessions{account: account, err: tt.err}

			var gotID uuid.UUID
			var gotKind, gotToken string
			handler := AuthSession(sessions, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = utils.GetAccountIDFromContext(r.Context())
				gotKind, _ = utils.GetAccountKindFromContext(r.Context())
				gotToken, _ = utils.GetTokenFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, account.ID, gotID)
				assert.Equal(t, "business", gotKind)
				assert.Equal(t, token, gotToken)
				assert.Equal(t, token, sessions.token)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Run("preflight short-circuits", func(t *testing.T) {
		called := false
		handler := CORS("*")(okHandler(&called))

		req := httptest.NewRequest(http.MethodOptions, "/api/send-code", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, called)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "authorization")
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("fixed origin allows credentials", func(t *testing.T) {
		called := false
		handler := CORS("https://app.pesa.co.ke")(okHandler(&called))

		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.True(t, called)
		assert.Equal(t, "https://app.pesa.co.ke", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerMinute: 1, Burst: 2, CleanupInterval: time.Hour}, zap.NewNop())
	t.Cleanup(rl.Stop)

	called := false
	handler := rl.Middleware(okHandler(&called))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/send-code", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:5001").Code)

	limited := send("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, limited.Body.String())

	assert.Equal(t, http.StatusOK, send("10.0.0.2:5000").Code, "other clients have their own bucket")
	assert.Equal(t, 2, rl.size())
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerMinute: 60, Burst: 1, CleanupInterval: time.Minute}, zap.NewNop())
	t.Cleanup(rl.Stop)

	rl.limiterFor("10.0.0.1")
	require.Equal(t, 1, rl.size())

	rl.cleanup(time.Now().Add(time.Minute))
	assert.Equal(t, 1, rl.size())

	rl.cleanup(time.Now().Add(3 * time.Minute))
	assert.Equal(t, 0, rl.size())
}

func TestClientInfo(t *testing.T) {
	var got utils.ClientInfo
	handler := ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = utils.GetClientInfo(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "197.232.1.10:41234"
	req.Header.Set("User-Agent", "PesaApp/2.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "197.232.1.10", got.IPAddress)
	assert.Equal(t, "PesaApp/2.1", got.UserAgent)
}

func TestRecover(t *testing.T) {
	handler := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":false,"message":"Internal server error"}`, w.Body.String())
}

func TestLogger_PassesThroughStatus(t *testing.T) {
	handler := Logger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", w.Body.String())
}

func TestTelemetry_RepanicsIntoRecover(t *testing.T) {
	handler := Recover(zap.NewNop())(Telemetry()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("deep")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/register", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
