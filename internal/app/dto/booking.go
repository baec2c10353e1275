package dto

import (
	"time"

	domainbooking "hirely/internal/domain/booking"
	"hirely/internal/domain/pricing"
	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/money"
)

// MoneyDTO carries minor units plus a rendered major-unit amount.
type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
		Display:  value.Decimal().StringFixed(2),
	}
}

type PriceBreakdown struct {
	Policy       string   `json:"policy"`
	Days         int      `json:"days"`
	Quantity     int      `json:"quantity"`
	DailyRate    MoneyDTO `json:"daily_rate"`
	BaseRental   MoneyDTO `json:"base_rental"`
	PlatformFee  MoneyDTO `json:"platform_fee"`
	HirerTotal   MoneyDTO `json:"hirer_total"`
	ListerPayout MoneyDTO `json:"lister_payout"`
}

func MapBreakdown(b pricing.Breakdown) PriceBreakdown {
	return PriceBreakdown{
		Policy:       b.Policy,
		Days:         b.Days,
		Quantity:     b.Quantity,
		DailyRate:    MapMoney(b.DailyRate),
		BaseRental:   MapMoney(b.BaseRental),
		PlatformFee:  MapMoney(b.PlatformFee),
		HirerTotal:   MapMoney(b.HirerTotal),
		ListerPayout: MapMoney(b.ListerPayout),
	}
}

type Booking struct {
	ID           string         `json:"id"`
	ProductID    string         `json:"product_id"`
	HirerID      string         `json:"hirer_id"`
	ListerID     string         `json:"lister_id"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
	Status       string         `json:"status"`
	Role         string         `json:"role,omitempty"`
	Price        PriceBreakdown `json:"price"`
	CancelReason string         `json:"cancel_reason,omitempty"`
	Version      int64          `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

// MapBooking renders b for viewerID; Role is empty when the viewer is not a
// participant.
func MapBooking(b *domainbooking.Booking, viewerID string) Booking {
	return Booking{
		ID:           string(b.ID),
		ProductID:    string(b.ProductID),
		HirerID:      b.HirerID,
		ListerID:     b.ListerID,
		StartDate:    daterange.FormatDay(b.Range.Start),
		EndDate:      daterange.FormatDay(b.Range.End),
		Status:       string(b.Status),
		Role:         string(b.RoleOf(viewerID)),
		Price:        MapBreakdown(b.Price),
		CancelReason: b.CancelReason,
		Version:      b.Version,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}
