package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/domain/shared/money"
)

func TestMulRateRoundsHalfAwayFromZero(t *testing.T) {
	type testCase struct {
		name   string
		amount int64
		rate   string
		want   int64
	}

	tests := []testCase{
		{name: "exact", amount: 25000, rate: "0.15", want: 3750},
		{name: "half up", amount: 10, rate: "0.15", want: 2},
		{name: "below half", amount: 13, rate: "0.1", want: 1},
		{name: "negative half", amount: -10, rate: "0.15", want: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := money.Must(tt.amount, "usd").MulRate(decimal.RequireFromString(tt.rate))
			assert.Equal(t, tt.want, got.Amount)
			assert.Equal(t, "USD", got.Currency)
		})
	}
}

func TestArithmeticRequiresSameCurrency(t *testing.T) {
	_, err := money.Must(100, "USD").Add(money.Must(100, "EUR"))
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	sum, err := money.Must(100, "USD").Add(money.Must(50, "USD"))
	require.NoError(t, err)
	assert.Equal(t, "1.50 USD", sum.String())

	_, err = money.New(1, "US")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}
