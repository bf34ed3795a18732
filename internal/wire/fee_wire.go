package wire

import (
	"pesa-smart-plan/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireFee(r chi.Router, feeHandler *adaptor.FeeHandler) {
	r.Get("/api/fees/quote", feeHandler.Quote)
}
