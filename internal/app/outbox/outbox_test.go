package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/app/outbox"
	"hirely/internal/domain/shared/events"
)

type bookingRequested struct {
	BookingID string    `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (e bookingRequested) EventName() string     { return "booking.requested" }
func (e bookingRequested) AggregateID() string   { return e.BookingID }
func (e bookingRequested) OccurredAt() time.Time { return e.At }

type sliceOutbox struct {
	records []outbox.EventRecord
	fail    error
}

func (s *sliceOutbox) Add(_ context.Context, rec outbox.EventRecord) error {
	if s.fail != nil {
		return s.fail
	}
	s.records = append(s.records, rec)
	return nil
}

func TestRecordDomainEvents(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	box := &sliceOutbox{}
	enc := outbox.JSONEventEncoder{NewID: func() string { return "evt-1" }}

	err := outbox.RecordDomainEvents(context.Background(), box, enc, []events.DomainEvent{bookingRequested{BookingID: "b1", At: at}})
	require.NoError(t, err)
	require.Len(t, box.records, 1)

	rec := box.records[0]
	assert.Equal(t, "evt-1", rec.ID)
	assert.Equal(t, "booking.requested", rec.Name)
	assert.Equal(t, "b1", rec.Aggregate)
	assert.Equal(t, time.UTC, rec.OccurredAt.Location())
	assert.Equal(t, "booking", rec.Headers["aggregate-type"])
	assert.JSONEq(t, `{"booking_id":"b1","at":"2025-03-01T12:00:00+01:00"}`, string(rec.Payload))
}

func TestRecordDomainEventsWrapsAddFailure(t *testing.T) {
	cause := errors.New("disk full")
	err := outbox.RecordDomainEvents(context.Background(), &sliceOutbox{fail: cause}, nil, []events.DomainEvent{bookingRequested{BookingID: "b1"}})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "booking.requested")
}
