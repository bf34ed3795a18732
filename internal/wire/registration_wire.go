package wire

import (
	"pesa-smart-plan/internal/adaptor"
	"pesa-smart-plan/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireRegistration(r chi.Router, registrationHandler *adaptor.RegistrationHandler, limiter *middleware.RateLimiter) {
	r.Route("/api/register", func(r chi.Router) {
		// Registering and resending both send a code
		r.With(limiter.Middleware).Post("/", registrationHandler.Register)
		r.Get("/{id}", registrationHandler.Get)
		r.With(limiter.Middleware).Post("/{id}/resend", registrationHandler.Resend)
		r.Post("/{id}/confirm", registrationHandler.Confirm)
	})

	r.Post("/api/login", registrationHandler.Login)
}
