package dto

import (
	"time"

	domainreviews "hirely/internal/domain/reviews"
)

type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	ProductID  string    `json:"product_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReviewCollection struct {
	Items   []Review `json:"items"`
	Total   int      `json:"total"`
	Average float64  `json:"average"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:         string(review.ID),
		BookingID:  string(review.BookingID),
		ProductID:  string(review.ProductID),
		ReviewerID: review.ReviewerID,
		RevieweeID: review.RevieweeID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}
}
