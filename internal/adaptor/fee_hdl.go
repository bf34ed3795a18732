package adaptor

import (
	"net/http"
	"strconv"

	"pesa-smart-plan/internal/dto/response"
	"pesa-smart-plan/pkg/fee"
	"pesa-smart-plan/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type FeeHandler struct {
	log *zap.Logger
}

func NewFeeHandler(log *zap.Logger) *FeeHandler {
	return &FeeHandler{log: log}
}

// Quote handles GET /api/fees/quote?amount=&points=
func (h *FeeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	amount, err := decimal.NewFromString(query.Get("amount"))
	if err != nil {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"amount": "Must be a number"})
		return
	}

	var points int64
	if raw := query.Get("points"); raw != "" {
		points, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || points < 0 {
			utils.ResponseBadRequest(w, "Validation failed", map[string]string{"points": "Must be a non-negative integer"})
			return
		}
	}

	q := fee.NewQuote(amount, points)
	utils.ResponseSuccess(w, "Fee quote calculated", response.FeeQuoteResponse{
		Amount:     q.Amount,
		Fee:        q.Fee,
		Discount:   q.Discount,
		PayableFee: q.PayableFee,
		Total:      q.Total,
		Points:     points,
	})
}
