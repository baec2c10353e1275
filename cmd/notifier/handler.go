package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"hirely/internal/infra/inbox"
)

// cloudEvent is the envelope the outbox relay publishes.
type cloudEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

// participants covers every payload field that names a user to notify.
type participants struct {
	HirerID    string `json:"hirer_id"`
	ListerID   string `json:"lister_id"`
	ActorID    string `json:"actor_id"`
	UserID     string `json:"user_id"`
	RevieweeID string `json:"reviewee_id"`
	BookingID  string `json:"booking_id"`
	To         string `json:"to"`
}

// notification is one message addressed to one user.
type notification struct {
	Recipient string
	Event     string
	BookingID string
	Detail    string
}

type Notifier struct {
	Inbox  inbox.Store
	Logger *slog.Logger
	// Deliver defaults to logging the notification.
	Deliver func(ctx context.Context, n notification) error
}

func (n *Notifier) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return fmt.Errorf("decode cloudevent: %w", err)
	}
	if evt.ID == "" {
		evt.ID = header(msg, "ce-id")
	}
	if evt.ID == "" {
		return fmt.Errorf("event without id on %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
	}
	seen, err := n.Inbox.Seen(ctx, evt.ID)
	if err != nil {
		return err
	}
	if seen {
		n.Logger.Debug("duplicate event skipped", "event_id", evt.ID, "type", evt.Type)
		return nil
	}
	var p participants
	if len(evt.Data) > 0 {
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return fmt.Errorf("decode event data: %w", err)
		}
	}
	for _, out := range route(strings.TrimSuffix(evt.Type, ".v1"), p) {
		if err := n.deliver(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) deliver(ctx context.Context, out notification) error {
	if n.Deliver != nil {
		return n.Deliver(ctx, out)
	}
	n.Logger.Info("notify", "recipient", out.Recipient, "event", out.Event, "booking_id", out.BookingID, "detail", out.Detail)
	return nil
}

// route decides who hears about an event. The actor of a change is never
// notified of their own action.
func route(eventType string, p participants) []notification {
	var out []notification
	add := func(recipient, detail string) {
		if recipient == "" || recipient == p.ActorID {
			return
		}
		out = append(out, notification{Recipient: recipient, Event: eventType, BookingID: p.BookingID, Detail: detail})
	}
	switch eventType {
	case "booking.requested":
		add(p.ListerID, "new booking request")
	case "booking.status_changed":
		add(p.HirerID, "booking is now "+p.To)
		add(p.ListerID, "booking is now "+p.To)
	case "booking.cancelled":
		add(p.HirerID, "booking cancelled")
		add(p.ListerID, "booking cancelled")
	case "ledger.payout_requested":
		add(p.UserID, "payout requested")
	case "review.submitted":
		add(p.RevieweeID, "new review")
	}
	return out
}

func header(msg *sarama.ConsumerMessage, key string) string {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}
