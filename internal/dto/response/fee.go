package response

import "github.com/shopspring/decimal"

type FeeQuoteResponse struct {
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
	Discount   decimal.Decimal `json:"discount"`
	PayableFee decimal.Decimal `json:"payable_fee"`
	Total      decimal.Decimal `json:"total"`
	Points     int64           `json:"points"`
}
