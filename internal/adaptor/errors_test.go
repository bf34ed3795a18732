package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &usecase.ValidationError{Fields: map[string]string{"Email": "Invalid email format"}}, http.StatusBadRequest},
		{"duplicate", &usecase.DuplicateAccountError{Email: "a@b.co", Kind: entity.KindCustomer}, http.StatusConflict},
		{"wrapped duplicate", fmt.Errorf("register: %w", &usecase.DuplicateAccountError{Kind: entity.KindBusiness}), http.StatusConflict},
		{"invalid code", usecase.ErrInvalidCode, http.StatusBadRequest},
		{"malformed code", usecase.ErrMalformedCode, http.StatusBadRequest},
		{"cooldown", &usecase.CooldownError{Channel: entity.ChannelEmail, Remaining: 1500 * time.Millisecond}, http.StatusTooManyRequests},
		{"credentials", usecase.ErrInvalidCredentials, http.StatusUnauthorized},
		{"session", usecase.ErrSessionInvalid, http.StatusUnauthorized},
		{"kind mismatch", &usecase.KindMismatchError{Requested: entity.KindCustomer, Actual: entity.KindBusiness}, http.StatusForbidden},
		{"registration not found", usecase.ErrRegistrationNotFound, http.StatusNotFound},
		{"account not found", usecase.ErrAccountNotFound, http.StatusNotFound},
		{"invalid state", usecase.ErrInvalidState, http.StatusConflict},
		{"infrastructure", errors.New("connection reset by peer"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/register", nil)

			writeServiceError(w, r, zap.NewNop(), tt.err, "test")

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["status"])
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	writeServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), zap.NewNop(), errors.New("pq: password authentication failed"), "test")

	assert.NotContains(t, w.Body.String(), "password authentication")
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestWriteServiceError_CooldownRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	err := &usecase.CooldownError{Channel: entity.ChannelPhone, Remaining: 41200 * time.Millisecond}

	writeServiceError(w, httptest.NewRequest(http.MethodPost, "/", nil), zap.NewNop(), err, "resend")

	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"retry_after_seconds":42`)
}

type failingCodes struct {
	err error
}

func (f failingCodes) Issue(context.Context, string, entity.Channel) error { return f.err }
func (f failingCodes) Verify(context.Context, string, entity.Channel, string) error {
	return f.err
}
func (f failingCodes) Cleanup(context.Context) (int64, error) { return 0, f.err }

func TestCodeHandler_InfrastructureFailure(t *testing.T) {
	h := NewCodeHandler(failingCodes{err: errors.New("db down")}, zap.NewNop())

	w := httptest.NewRecorder()
	h.SendCode(w, httptest.NewRequest(http.MethodPost, "/api/send-code", strings.NewReader(`{"email":"a@b.co","type":"email"}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to send code"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.VerifyCode(w, httptest.NewRequest(http.MethodPost, "/api/verify-code", strings.NewReader(`{"email":"a@b.co","code":"123456","type":"email"}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to verify code"}`, w.Body.String())
}

func TestCodeHandler_InvalidCode(t *testing.T) {
	h := NewCodeHandler(failingCodes{err: usecase.ErrInvalidCode}, zap.NewNop())

	w := httptest.NewRecorder()
	h.VerifyCode(w, httptest.NewRequest(http.MethodPost, "/api/verify-code", strings.NewReader(`{"phone":"+254712345678","code":"000000","type":"phone"}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid or expired verification code"}`, w.Body.String())
}

func TestCodeHandler_MalformedBody(t *testing.T) {
	h := NewCodeHandler(failingCodes{}, zap.NewNop())

	w := httptest.NewRecorder()
	h.SendCode(w, httptest.NewRequest(http.MethodPost, "/api/send-code", strings.NewReader(`{`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())
}
