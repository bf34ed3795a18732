package wire

import (
	"pesa-smart-plan/internal/adaptor"
	"pesa-smart-plan/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireCode(r chi.Router, codeHandler *adaptor.CodeHandler, limiter *middleware.RateLimiter) {
	r.With(limiter.Middleware).Post("/api/send-code", codeHandler.SendCode)
	r.Post("/api/verify-code", codeHandler.VerifyCode)
}
