package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/domain/booking"
	"hirely/internal/domain/pricing"
	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/fault"
	"hirely/internal/domain/shared/money"
)

const (
	hirer    = "hirer-1"
	lister   = "lister-1"
	stranger = "someone-else"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newBooking(t *testing.T) *booking.Booking {
	t.Helper()
	dr, err := daterange.New(now.AddDate(0, 0, 1), now.AddDate(0, 0, 6))
	require.NoError(t, err)
	quote, err := pricing.NewEngine(pricing.DefaultRates()).Quote(pricing.Tiers{OneDay: money.Must(5000, "USD")}, dr.Days(), 1)
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.CreateParams{
		ID:        "booking-1",
		ProductID: "product-1",
		HirerID:   hirer,
		ListerID:  lister,
		Range:     dr,
		Price:     quote,
		CreatedAt: now,
	})
	require.NoError(t, err)
	return b
}

func actorFor(required booking.Actor) string {
	if required == booking.ActorHirer {
		return hirer
	}
	return lister
}

func TestNewBooking(t *testing.T) {
	b := newBooking(t)

	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, 5, b.Price.Days)
	evs := b.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "booking.requested", evs[0].EventName())

	_, err := booking.NewBooking(booking.CreateParams{
		ID:       "booking-2",
		HirerID:  lister,
		ListerID: lister,
		Range:    b.Range,
		Price:    b.Price,
	})
	assert.ErrorIs(t, err, fault.ErrSelfBooking)

	unbalanced := b.Price
	unbalanced.HirerTotal.Amount++
	_, err = booking.NewBooking(booking.CreateParams{ID: "booking-3", HirerID: hirer, ListerID: lister, Range: b.Range, Price: unbalanced})
	assert.ErrorIs(t, err, fault.ErrInvalidAmount)
}

func TestTransitionClosure(t *testing.T) {
	table := booking.Transitions()
	for _, from := range booking.Statuses() {
		for _, to := range booking.Statuses() {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				b := newBooking(t)
				b.Status = from

				required, allowed := table[booking.Edge{From: from, To: to}]
				if !allowed {
					assert.ErrorIs(t, b.Transition(hirer, to, now), fault.ErrInvalidTransition)
					assert.ErrorIs(t, b.Transition(lister, to, now), fault.ErrInvalidTransition)
					assert.Equal(t, from, b.Status)
					return
				}

				if required != booking.ActorEither {
					wrong := hirer
					if required == booking.ActorHirer {
						wrong = lister
					}
					assert.ErrorIs(t, b.Transition(wrong, to, now), fault.ErrForbidden)
					assert.Equal(t, from, b.Status)
				}
				assert.ErrorIs(t, b.Transition(stranger, to, now), fault.ErrForbidden)

				require.NoError(t, b.Transition(actorFor(required), to, now))
				assert.Equal(t, to, b.Status)
			})
		}
	}
}

func TestEitherEdgesAcceptBothParticipants(t *testing.T) {
	for _, actor := range []string{hirer, lister} {
		b := newBooking(t)
		b.Status = booking.StatusPaid
		require.NoError(t, b.Transition(actor, booking.StatusCollected, now))
		require.NoError(t, b.Transition(actor, booking.StatusReturned, now))
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, from := range booking.Statuses() {
		if !from.Terminal() {
			continue
		}
		for _, to := range booking.Statuses() {
			b := newBooking(t)
			b.Status = from
			assert.Error(t, b.Transition(hirer, to, now), "%s->%s", from, to)
			assert.Error(t, b.Transition(lister, to, now), "%s->%s", from, to)
		}
		b := newBooking(t)
		b.Status = from
		assert.ErrorIs(t, b.Cancel(hirer, "late", now), fault.ErrInvalidTransition)
	}
}

func TestCancel(t *testing.T) {
	type testCase struct {
		name    string
		from    booking.Status
		actor   string
		wantErr error
	}

	tests := []testCase{
		{name: "hirer cancels pending", from: booking.StatusPending, actor: hirer},
		{name: "lister cancels approved", from: booking.StatusApproved, actor: lister},
		{name: "paid cannot be cancelled", from: booking.StatusPaid, actor: hirer, wantErr: fault.ErrInvalidTransition},
		{name: "stranger", from: booking.StatusPending, actor: stranger, wantErr: fault.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBooking(t)
			b.ClearEvents()
			b.Status = tt.from

			err := b.Cancel(tt.actor, "  changed plans ", now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, b.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, booking.StatusCancelled, b.Status)
			assert.Equal(t, "changed plans", b.CancelReason)
			evs := b.PendingEvents()
			require.Len(t, evs, 1)
			assert.Equal(t, "booking.cancelled", evs[0].EventName())
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := booking.ParseStatus(" approved ")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusApproved, s)

	_, err = booking.ParseStatus("LOST")
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestStatusNotice(t *testing.T) {
	assert.Equal(t, "Booking status updated to APPROVED.", booking.StatusNotice(booking.StatusApproved))
	assert.Equal(t, "Booking request created for 5 day(s).", booking.CreatedNotice(5))
}
