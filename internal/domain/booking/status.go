package booking

import (
	"fmt"
	"strings"

	"hirely/internal/domain/shared/fault"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDeclined  Status = "DECLINED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusCollected Status = "COLLECTED"
	StatusReturned  Status = "RETURNED"
	StatusCompleted Status = "COMPLETED"
)

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusDeclined,
	StatusPaid,
	StatusCancelled,
	StatusCollected,
	StatusReturned,
	StatusCompleted,
}

var ErrUnknownStatus = fmt.Errorf("booking: unknown status: %w", fault.ErrValidation)

func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus accepts any casing and returns the canonical upper-case value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range allStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusCancelled || s == StatusCompleted
}

func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusApproved
}

// Active statuses occupy the product calendar.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid, StatusCollected:
		return true
	default:
		return false
	}
}

// Actor is the participant a transition edge requires.
type Actor string

const (
	ActorHirer  Actor = "HIRER"
	ActorLister Actor = "LISTER"
	ActorEither Actor = "EITHER"
)

// Permits reports whether a participant holding role may take an edge that
// requires a.
func (a Actor) Permits(role Actor) bool {
	if role != ActorHirer && role != ActorLister {
		return false
	}
	return a == ActorEither || a == role
}

type Edge struct {
	From Status
	To   Status
}

var transitions = map[Edge]Actor{
	{StatusPending, StatusApproved}:   ActorLister,
	{StatusPending, StatusDeclined}:   ActorLister,
	{StatusApproved, StatusPaid}:      ActorHirer,
	{StatusApproved, StatusCancelled}: ActorHirer,
	{StatusPaid, StatusCollected}:     ActorEither,
	{StatusCollected, StatusReturned}: ActorEither,
	{StatusReturned, StatusCompleted}: ActorLister,
}

// RequiredActor looks up an edge in the transition table.
func RequiredActor(from, to Status) (Actor, bool) {
	actor, ok := transitions[Edge{From: from, To: to}]
	return actor, ok
}

// Transitions returns a copy of the transition table.
func Transitions() map[Edge]Actor {
	out := make(map[Edge]Actor, len(transitions))
	for k, v := range transitions {
		out[k] = v
	}
	return out
}

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking: invalid transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return fault.ErrInvalidTransition
}
