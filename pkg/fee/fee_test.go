package fee

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestTransactionFee_Tiers(t *testing.T) {
	tests := []struct {
		amount decimal.Decimal
		want   int64
	}{
		{d(-10), 1},
		{d(0), 1},
		{d(5_000), 1},
		{decimal.RequireFromString("5000.01"), 3},
		{d(15_000), 3},
		{d(50_000), 5},
		{d(100_000), 8},
		{d(500_000), 12},
		{d(500_001), 15},
	}
	for _, tt := range tests {
		assert.True(t, d(tt.want).Equal(TransactionFee(tt.amount)), "amount %s", tt.amount)
	}
}

func TestPointsDiscount(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(PointsDiscount(0)))
	assert.True(t, decimal.Zero.Equal(PointsDiscount(99)))
	assert.True(t, d(2).Equal(PointsDiscount(250)))
	assert.True(t, d(5).Equal(PointsDiscount(10_000)))
}

func TestReferralPoints(t *testing.T) {
	assert.Equal(t, int64(200), ReferralPoints(ReferralSignup, decimal.Zero))
	assert.Equal(t, int64(12), ReferralPoints(ReferralPurchase, d(1_250)))
	assert.Equal(t, int64(0), ReferralPoints(ReferralPurchase, decimal.Zero))
	assert.Equal(t, int64(0), ReferralPoints("other", d(1_000)))
}

func TestNewQuote_DiscountCappedAtFee(t *testing.T) {
	q := NewQuote(d(3_000), 500)
	assert.True(t, d(1).Equal(q.Fee))
	assert.True(t, d(1).Equal(q.Discount))
	assert.True(t, decimal.Zero.Equal(q.PayableFee))
	assert.True(t, d(3_000).Equal(q.Total))

	q = NewQuote(d(200_000), 300)
	assert.True(t, d(12).Equal(q.Fee))
	assert.True(t, d(3).Equal(q.Discount))
	assert.True(t, d(9).Equal(q.PayableFee))
	assert.True(t, d(200_009).Equal(q.Total))
}
