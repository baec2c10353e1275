package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/fault"
	"hirely/internal/domain/shared/money"
)

var (
	ErrOneDayRequired   = fmt.Errorf("pricing: 1-day price must be positive: %w", fault.ErrValidation)
	ErrTierNotPositive  = fmt.Errorf("pricing: tier prices must be positive when set: %w", fault.ErrValidation)
	ErrTierAboveDaily   = fmt.Errorf("pricing: tier price exceeds 1-day price times tier days: %w", fault.ErrValidation)
	ErrCurrencyUnset    = fmt.Errorf("pricing: currency must be defined: %w", fault.ErrValidation)
	ErrInvalidQuantity  = fmt.Errorf("pricing: quantity must be at least 1: %w", fault.ErrValidation)
	ErrInvalidDays      = fmt.Errorf("pricing: day count must be at least 1: %w", fault.ErrInvalidDateRange)
	ErrNegativeRate     = errors.New("pricing: fee rates cannot be negative")
	ErrUnbalancedAmount = errors.New("pricing: hirer total must equal lister payout plus platform fee")
)

const (
	threeDayTier = 3
	sevenDayTier = 7
)

// Tiers are per-day rates. ThreeDay and SevenDay are optional discount tiers
// applied to the whole window once it reaches the tier length.
type Tiers struct {
	OneDay   money.Money
	ThreeDay *money.Money
	SevenDay *money.Money
}

func (t Tiers) Validate() error {
	if t.OneDay.Currency == "" {
		return ErrCurrencyUnset
	}
	if !t.OneDay.IsPositive() {
		return ErrOneDayRequired
	}
	for days, tier := range map[int64]*money.Money{threeDayTier: t.ThreeDay, sevenDayTier: t.SevenDay} {
		if tier == nil {
			continue
		}
		if tier.Currency != t.OneDay.Currency {
			return money.ErrCurrencyMismatch
		}
		if !tier.IsPositive() {
			return ErrTierNotPositive
		}
		if tier.Amount > t.OneDay.Amount*days {
			return ErrTierAboveDaily
		}
	}
	return nil
}

// RateFor selects the per-day rate for a rental of the given length.
func (t Tiers) RateFor(days int) money.Money {
	if days >= sevenDayTier && t.SevenDay != nil {
		return *t.SevenDay
	}
	if days >= threeDayTier && t.ThreeDay != nil {
		return *t.ThreeDay
	}
	return t.OneDay
}

// Breakdown is the priced result of a rental. Amounts are fixed once a booking
// is created.
type Breakdown struct {
	Days         int
	Quantity     int
	DailyRate    money.Money
	BaseRental   money.Money
	PlatformFee  money.Money
	HirerTotal   money.Money
	ListerPayout money.Money
	Policy       string
}

// Balanced reports whether the hirer total equals payout plus fee.
func (b Breakdown) Balanced() bool {
	return b.HirerTotal.Currency == b.ListerPayout.Currency &&
		b.HirerTotal.Amount == b.ListerPayout.Amount+b.PlatformFee.Amount
}

// DaysBetween is ceil((end - start) / 24h) and must be at least one.
func DaysBetween(dr daterange.DateRange) (int, error) {
	days := dr.Days()
	if days < 1 {
		return 0, daterange.ErrInvalidRange
	}
	return days, nil
}

// Engine prices rentals with the canonical booking fee policy.
type Engine struct {
	Fees FeePolicy
}

func NewEngine(rates Rates) Engine {
	return Engine{Fees: rates.Booking}
}

// Quote computes base rental, platform fee, hirer total and lister payout.
func (e Engine) Quote(tiers Tiers, days, quantity int) (Breakdown, error) {
	if err := tiers.Validate(); err != nil {
		return Breakdown{}, err
	}
	if days < 1 {
		return Breakdown{}, ErrInvalidDays
	}
	if quantity < 1 {
		return Breakdown{}, ErrInvalidQuantity
	}
	if e.Fees.PlatformRate.IsNegative() {
		return Breakdown{}, ErrNegativeRate
	}
	rate := tiers.RateFor(days)
	base := rate.Multiply(int64(days) * int64(quantity))
	fee := base.MulRate(e.Fees.PlatformRate)
	total, err := base.Add(fee)
	if err != nil {
		return Breakdown{}, err
	}
	out := Breakdown{
		Days:         days,
		Quantity:     quantity,
		DailyRate:    rate,
		BaseRental:   base,
		PlatformFee:  fee,
		HirerTotal:   total,
		ListerPayout: base,
		Policy:       e.Fees.Name,
	}
	if !out.Balanced() {
		return Breakdown{}, ErrUnbalancedAmount
	}
	return out, nil
}

// FeePolicy is the hirer-side platform fee applied when a booking is created.
type FeePolicy struct {
	Name         string
	PlatformRate decimal.Decimal
}

// PreviewPolicy is the service plus protection split shown by the price
// preview. It never feeds bookings or the ledger.
type PreviewPolicy struct {
	Name           string
	ServiceRate    decimal.Decimal
	ProtectionRate decimal.Decimal
}

// Rates groups the named fee policies injected from configuration.
type Rates struct {
	Booking FeePolicy
	Preview PreviewPolicy
}

// DefaultRates mirrors the defaults in configuration.
func DefaultRates() Rates {
	return Rates{
		Booking: FeePolicy{Name: "booking", PlatformRate: decimal.RequireFromString("0.15")},
		Preview: PreviewPolicy{
			Name:           "preview",
			ServiceRate:    decimal.RequireFromString("0.10"),
			ProtectionRate: decimal.RequireFromString("0.05"),
		},
	}
}

// Preview is a display-only estimate.
type Preview struct {
	Days          int
	Quantity      int
	DailyRate     money.Money
	BaseRental    money.Money
	ServiceFee    money.Money
	ProtectionFee money.Money
	Total         money.Money
	Policy        string
}

func (p PreviewPolicy) Preview(tiers Tiers, days, quantity int) (Preview, error) {
	if err := tiers.Validate(); err != nil {
		return Preview{}, err
	}
	if days < 1 {
		return Preview{}, ErrInvalidDays
	}
	if quantity < 1 {
		return Preview{}, ErrInvalidQuantity
	}
	if p.ServiceRate.IsNegative() || p.ProtectionRate.IsNegative() {
		return Preview{}, ErrNegativeRate
	}
	rate := tiers.RateFor(days)
	base := rate.Multiply(int64(days) * int64(quantity))
	service := base.MulRate(p.ServiceRate)
	protection := base.MulRate(p.ProtectionRate)
	total := money.Money{Amount: base.Amount + service.Amount + protection.Amount, Currency: base.Currency}
	return Preview{
		Days:          days,
		Quantity:      quantity,
		DailyRate:     rate,
		BaseRental:    base,
		ServiceFee:    service,
		ProtectionFee: protection,
		Total:         total,
		Policy:        p.Name,
	}, nil
}
