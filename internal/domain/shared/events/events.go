// Package events lets aggregates remember what happened to them until the
// handler that changed them writes the events to the outbox.
package events

import (
	"slices"
	"time"
)

// DomainEvent is named "<aggregate>.<fact>", for example "booking.requested".
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates. The zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event != nil {
		r.pending = append(r.pending, event)
	}
}

// PendingEvents returns a copy of the recorded events.
func (r *EventRecorder) PendingEvents() []DomainEvent {
	return slices.Clone(r.pending)
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

// Drain hands over the recorded events and forgets them.
func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
