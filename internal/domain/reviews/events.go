package reviews

import (
	"time"

	"hirely/internal/domain/booking"
	"hirely/internal/domain/products"
)

type ReviewSubmitted struct {
	ReviewID   ReviewID           `json:"review_id"`
	BookingID  booking.BookingID  `json:"booking_id"`
	ProductID  products.ProductID `json:"product_id"`
	RevieweeID string             `json:"reviewee_id"`
	Rating     int                `json:"rating"`
	At         time.Time          `json:"at"`
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }
