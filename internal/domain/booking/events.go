package booking

import (
	"time"

	"hirely/internal/domain/products"
)

type BookingRequested struct {
	BookingID  BookingID          `json:"booking_id"`
	ProductID  products.ProductID `json:"product_id"`
	HirerID    string             `json:"hirer_id"`
	ListerID   string             `json:"lister_id"`
	Start      time.Time          `json:"start"`
	End        time.Time          `json:"end"`
	Days       int                `json:"days"`
	HirerTotal int64              `json:"hirer_total"`
	Currency   string             `json:"currency"`
	At         time.Time          `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID          `json:"booking_id"`
	ProductID products.ProductID `json:"product_id"`
	HirerID   string             `json:"hirer_id"`
	ListerID  string             `json:"lister_id"`
	ActorID   string             `json:"actor_id"`
	From      Status             `json:"from"`
	To        Status             `json:"to"`
	At        time.Time          `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return "booking.status_changed" }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID          `json:"booking_id"`
	ProductID products.ProductID `json:"product_id"`
	HirerID   string             `json:"hirer_id"`
	ListerID  string             `json:"lister_id"`
	ActorID   string             `json:"actor_id"`
	From      Status             `json:"from"`
	Reason    string             `json:"reason,omitempty"`
	At        time.Time          `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
