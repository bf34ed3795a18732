package wire

import (
	"net/http"

	"pesa-smart-plan/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAccount(r chi.Router, accountHandler *adaptor.AccountHandler, auth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/api/logout", accountHandler.Logout)
		r.Get("/api/accounts/me", accountHandler.Me)
		r.Post("/api/accounts/switch", accountHandler.Switch)
	})
}
