// Package money holds amounts in integer minor units of an ISO 4217 currency.
// Every price, fee, escrow hold and payout in hirely is a Money.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// minorDigits is the number of decimals shown for every supported currency.
const minorDigits = 2

type Money struct {
	Amount   int64
	Currency string
}

func New(amount int64, currency string) (Money, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: code}, nil
}

// Must is New for literals in fixtures and tests.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Multiply scales by a whole factor such as days or units.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// MulRate applies a fractional rate and rounds half away from zero to whole
// minor units: 0.15 of 2500 cents is 375, of 2510 is 377.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{Amount: decimal.NewFromInt(m.Amount).Mul(rate).Round(0).IntPart(), Currency: m.Currency}
}

func (m Money) IsZero() bool { return m.Amount == 0 }

func (m Money) IsPositive() bool { return m.Amount > 0 }

func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.Amount > other.Amount, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -minorDigits)
}

// String renders "287.50 USD".
func (m Money) String() string {
	return m.Decimal().StringFixed(minorDigits) + " " + m.Currency
}

func (m Money) sameCurrency(other Money) error {
	switch {
	case m.Currency == "" || other.Currency == "":
		return ErrInvalidCurrency
	case m.Currency != other.Currency:
		return ErrCurrencyMismatch
	}
	return nil
}
