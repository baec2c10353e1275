package dto

import (
	"hirely/internal/domain/pricing"
	"hirely/internal/domain/shared/money"
)

type Tiers struct {
	OneDay   MoneyDTO  `json:"one_day"`
	ThreeDay *MoneyDTO `json:"three_day,omitempty"`
	SevenDay *MoneyDTO `json:"seven_day,omitempty"`
}

func MapTiers(t pricing.Tiers) Tiers {
	return Tiers{
		OneDay:   MapMoney(t.OneDay),
		ThreeDay: mapOptionalMoney(t.ThreeDay),
		SevenDay: mapOptionalMoney(t.SevenDay),
	}
}

func mapOptionalMoney(m *money.Money) *MoneyDTO {
	if m == nil {
		return nil
	}
	out := MapMoney(*m)
	return &out
}

// PricePreview is display-only and never matches a booking's charged amounts.
type PricePreview struct {
	ProductID     string   `json:"product_id"`
	Policy        string   `json:"policy"`
	Days          int      `json:"days"`
	Quantity      int      `json:"quantity"`
	DailyRate     MoneyDTO `json:"daily_rate"`
	BaseRental    MoneyDTO `json:"base_rental"`
	ServiceFee    MoneyDTO `json:"service_fee"`
	ProtectionFee MoneyDTO `json:"protection_fee"`
	Total         MoneyDTO `json:"total"`
}

func MapPreview(productID string, p pricing.Preview) PricePreview {
	return PricePreview{
		ProductID:     productID,
		Policy:        p.Policy,
		Days:          p.Days,
		Quantity:      p.Quantity,
		DailyRate:     MapMoney(p.DailyRate),
		BaseRental:    MapMoney(p.BaseRental),
		ServiceFee:    MapMoney(p.ServiceFee),
		ProtectionFee: MapMoney(p.ProtectionFee),
		Total:         MapMoney(p.Total),
	}
}
