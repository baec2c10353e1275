package ginserver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"hirely/internal/domain/booking"
	"hirely/internal/domain/shared/fault"
)

func TestStatusFor(t *testing.T) {
	type testCase struct {
		name string
		err  error
		want int
	}

	tests := []testCase{
		{name: "not found", err: fmt.Errorf("users: not found: %w", fault.ErrNotFound), want: http.StatusNotFound},
		{name: "forbidden", err: fault.ErrForbidden, want: http.StatusForbidden},
		{name: "concurrency conflict", err: fault.ErrConcurrencyConflict, want: http.StatusConflict},
		{name: "duplicate", err: fault.ErrConflict, want: http.StatusConflict},
		{name: "invalid transition", err: &booking.TransitionError{From: booking.StatusCompleted, To: booking.StatusPaid}, want: http.StatusBadRequest},
		{name: "insufficient balance", err: fault.ErrInsufficientBalance, want: http.StatusBadRequest},
		{name: "product unavailable", err: fault.ErrProductUnavailable, want: http.StatusBadRequest},
		{name: "self booking", err: booking.ErrSelfBooking, want: http.StatusBadRequest},
		{name: "invalid date range", err: fault.ErrInvalidDateRange, want: http.StatusBadRequest},
		{name: "invalid amount", err: fault.ErrInvalidAmount, want: http.StatusBadRequest},
		{name: "validation", err: fault.ErrValidation, want: http.StatusBadRequest},
		{name: "review not allowed", err: fault.ErrReviewNotAllowed, want: http.StatusBadRequest},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}
