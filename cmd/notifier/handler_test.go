package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/infra/inbox"
)

func eventMessage(t *testing.T, id, typ string, data map[string]any) *sarama.ConsumerMessage {
	t.Helper()
	body, err := json.Marshal(map[string]any{"id": id, "type": typ, "data": data})
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "booking.events.v1", Value: body}
}

func TestNotifierRoutesAndDeduplicates(t *testing.T) {
	var got []notification
	n := &Notifier{
		Inbox:  inbox.NewMemoryStore(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Deliver: func(_ context.Context, out notification) error {
			got = append(got, out)
			return nil
		},
	}
	msg := eventMessage(t, "evt-1", "booking.status_changed.v1", map[string]any{
		"booking_id": "b-1",
		"hirer_id":   "hirer",
		"lister_id":  "lister",
		"actor_id":   "lister",
		"to":         "ACCEPTED",
	})

	require.NoError(t, n.Handle(context.Background(), msg))
	require.NoError(t, n.Handle(context.Background(), msg))

	require.Len(t, got, 1)
	assert.Equal(t, "hirer", got[0].Recipient)
	assert.Equal(t, "b-1", got[0].BookingID)
	assert.Equal(t, "booking is now ACCEPTED", got[0].Detail)
}

func TestRoute(t *testing.T) {
	type testCase struct {
		name       string
		event      string
		p          participants
		recipients []string
	}

	tests := []testCase{
		{name: "request goes to lister", event: "booking.requested", p: participants{HirerID: "h", ListerID: "l", ActorID: "h"}, recipients: []string{"l"}},
		{name: "system change reaches both", event: "booking.status_changed", p: participants{HirerID: "h", ListerID: "l", ActorID: "system"}, recipients: []string{"h", "l"}},
		{name: "cancel skips actor", event: "booking.cancelled", p: participants{HirerID: "h", ListerID: "l", ActorID: "h"}, recipients: []string{"l"}},
		{name: "payout", event: "ledger.payout_requested", p: participants{UserID: "u"}, recipients: []string{"u"}},
		{name: "review", event: "review.submitted", p: participants{RevieweeID: "l"}, recipients: []string{"l"}},
		{name: "unknown", event: "product.created", p: participants{UserID: "u"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recipients []string
			for _, n := range route(tt.event, tt.p) {
				recipients = append(recipients, n.Recipient)
			}
			assert.Equal(t, tt.recipients, recipients)
		})
	}
}

func TestNotifierFallsBackToHeaderID(t *testing.T) {
	n := &Notifier{Inbox: inbox.NewMemoryStore(), Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	msg := &sarama.ConsumerMessage{
		Value:   []byte(`{"type":"review.submitted.v1","data":{"reviewee_id":"l"}}`),
		Headers: []*sarama.RecordHeader{{Key: []byte("ce-id"), Value: []byte("evt-9")}},
	}
	require.NoError(t, n.Handle(context.Background(), msg))

	seen, err := n.Inbox.Seen(context.Background(), "evt-9")
	require.NoError(t, err)
	assert.True(t, seen)
}
