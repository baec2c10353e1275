package reviews_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/domain/booking"
	"hirely/internal/domain/reviews"
	"hirely/internal/domain/shared/fault"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestSubmit(t *testing.T) {
	type testCase struct {
		name    string
		status  booking.Status
		author  string
		rating  int
		wantErr error
	}

	tests := []testCase{
		{name: "completed booking", status: booking.StatusCompleted, author: "hirer", rating: 5},
		{name: "approved booking", status: booking.StatusApproved, author: "hirer", rating: 5, wantErr: fault.ErrReviewNotAllowed},
		{name: "lister cannot review", status: booking.StatusCompleted, author: "lister", rating: 4, wantErr: fault.ErrForbidden},
		{name: "rating too high", status: booking.StatusCompleted, author: "hirer", rating: 6, wantErr: fault.ErrValidation},
		{name: "rating too low", status: booking.StatusCompleted, author: "hirer", rating: 0, wantErr: fault.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &booking.Booking{ID: "b1", ProductID: "p1", HirerID: "hirer", ListerID: "lister", Status: tt.status}
			review, err := reviews.Submit(reviews.SubmitParams{
				ID:        "r1",
				Booking:   b,
				AuthorID:  tt.author,
				Rating:    tt.rating,
				Comment:   " great drill ",
				CreatedAt: now,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "lister", review.RevieweeID)
			assert.Equal(t, "great drill", review.Comment)
			require.Len(t, review.PendingEvents(), 1)
		})
	}
}

func TestSubmitWithoutBooking(t *testing.T) {
	_, err := reviews.Submit(reviews.SubmitParams{AuthorID: "hirer", Rating: 3})
	assert.ErrorIs(t, err, fault.ErrNotFound)
}
