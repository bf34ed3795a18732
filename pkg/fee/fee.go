// Package fee holds the transaction fee and InstaPay points arithmetic.
// All amounts are Kenyan shillings.
package fee

import (
	"github.com/shopspring/decimal"
)

type tier struct {
	upTo decimal.Decimal
	fee  decimal.Decimal
}

var (
	feeTiers = []tier{
		{decimal.NewFromInt(5_000), decimal.NewFromInt(1)},
		{decimal.NewFromInt(15_000), decimal.NewFromInt(3)},
		{decimal.NewFromInt(50_000), decimal.NewFromInt(5)},
		{decimal.NewFromInt(100_000), decimal.NewFromInt(8)},
		{decimal.NewFromInt(500_000), decimal.NewFromInt(12)},
	}
	topFee = decimal.NewFromInt(15)

	pointsPerShilling    = int64(100)
	maxPointsDiscount    = decimal.NewFromInt(5)
	signupReferralPoints = int64(200)
)

type ReferralKind string

const (
	ReferralSignup   ReferralKind = "signup"
	ReferralPurchase ReferralKind = "purchase"
)

// TransactionFee returns the flat fee for a product of the given value.
// Non-positive values pay the lowest tier.
func TransactionFee(amount decimal.Decimal) decimal.Decimal {
	for _, t := range feeTiers {
		if amount.LessThanOrEqual(t.upTo) {
			return t.fee
		}
	}
	return topFee
}

// PointsDiscount converts points at 100 points per shilling, capped at KSH 5.
func PointsDiscount(points int64) decimal.Decimal {
	if points <= 0 {
		return decimal.Zero
	}
	d := decimal.NewFromInt(points / pointsPerShilling)
	return decimal.Min(d, maxPointsDiscount)
}

// ReferralPoints is 200 for a signup and one point per KSH 100 of a referred purchase.
func ReferralPoints(kind ReferralKind, purchase decimal.Decimal) int64 {
	switch kind {
	case ReferralSignup:
		return signupReferralPoints
	case ReferralPurchase:
		if !purchase.IsPositive() {
			return 0
		}
		return purchase.Div(decimal.NewFromInt(pointsPerShilling)).Floor().IntPart()
	default:
		return 0
	}
}

type Quote struct {
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
	Discount   decimal.Decimal `json:"discount"`
	PayableFee decimal.Decimal `json:"payable_fee"`
	Total      decimal.Decimal `json:"total"`
}

// NewQuote combines fee and points discount. The discount never exceeds the fee.
func NewQuote(amount decimal.Decimal, points int64) Quote {
	f := TransactionFee(amount)
	discount := decimal.Min(PointsDiscount(points), f)
	payable := f.Sub(discount)

	total := payable
	if amount.IsPositive() {
		total = amount.Add(payable)
	}

	return Quote{
		Amount:     amount,
		Fee:        f,
		Discount:   discount,
		PayableFee: payable,
		Total:      total,
	}
}
