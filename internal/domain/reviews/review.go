package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hirely/internal/domain/booking"
	"hirely/internal/domain/products"
	"hirely/internal/domain/shared/events"
	"hirely/internal/domain/shared/fault"
)

const maxCommentLength = 2000

var (
	ErrInvalidRating   = fmt.Errorf("reviews: rating must be between 1 and 5: %w", fault.ErrValidation)
	ErrCommentTooLong  = fmt.Errorf("reviews: comment exceeds %d characters: %w", maxCommentLength, fault.ErrValidation)
	ErrNotFound        = fmt.Errorf("reviews: not found: %w", fault.ErrNotFound)
	ErrNotCompleted    = fmt.Errorf("reviews: booking is not completed: %w", fault.ErrReviewNotAllowed)
	ErrNotHirer        = fmt.Errorf("reviews: only the hirer may review a booking: %w", fault.ErrForbidden)
	ErrAlreadyReviewed = fmt.Errorf("reviews: booking already reviewed: %w", fault.ErrConflict)
)

type ReviewID string

type Review struct {
	ID         ReviewID
	BookingID  booking.BookingID
	ProductID  products.ProductID
	ReviewerID string
	RevieweeID string
	Rating     int
	Comment    string
	CreatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Review, error)
	ListByProduct(ctx context.Context, productID products.ProductID, limit, offset int) ([]*Review, error)
	// Save fails with ErrAlreadyReviewed when the booking already has a review.
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID        ReviewID
	Booking   *booking.Booking
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Submit checks the booking is COMPLETED and the author is its hirer. The
// lister becomes the reviewee.
func Submit(params SubmitParams) (*Review, error) {
	b := params.Booking
	if b == nil {
		return nil, booking.ErrBookingNotFound
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrNotCompleted
	}
	if b.RoleOf(params.AuthorID) != booking.ActorHirer {
		return nil, ErrNotHirer
	}
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(params.Comment)
	if len([]rune(comment)) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	review := &Review{
		ID:         params.ID,
		BookingID:  b.ID,
		ProductID:  b.ProductID,
		ReviewerID: b.HirerID,
		RevieweeID: b.ListerID,
		Rating:     params.Rating,
		Comment:    comment,
		CreatedAt:  params.CreatedAt.UTC(),
	}
	review.Record(ReviewSubmitted{
		ReviewID:   review.ID,
		BookingID:  review.BookingID,
		ProductID:  review.ProductID,
		RevieweeID: review.RevieweeID,
		Rating:     review.Rating,
		At:         review.CreatedAt,
	})
	return review, nil
}
