package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hirely/internal/domain/pricing"
	"hirely/internal/domain/products"
	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/events"
	"hirely/internal/domain/shared/fault"
)

var (
	ErrBookingNotFound    = fmt.Errorf("booking: not found: %w", fault.ErrNotFound)
	ErrNotParticipant     = fmt.Errorf("booking: actor is not a participant: %w", fault.ErrForbidden)
	ErrWrongRole          = fmt.Errorf("booking: actor role not allowed for this transition: %w", fault.ErrForbidden)
	ErrSelfBooking        = fmt.Errorf("booking: cannot book own product: %w", fault.ErrSelfBooking)
	ErrProductUnavailable = fmt.Errorf("booking: product is not available: %w", fault.ErrProductUnavailable)
	ErrUnbalancedPrice    = fmt.Errorf("booking: hirer total must equal lister payout plus platform fee: %w", fault.ErrInvalidAmount)
	ErrConcurrentUpdate   = fmt.Errorf("booking: concurrent update: %w", fault.ErrConcurrencyConflict)
)

type BookingID string

type Booking struct {
	ID           BookingID
	ProductID    products.ProductID
	HirerID      string
	ListerID     string
	Range        daterange.DateRange
	Price        pricing.Breakdown
	Status       Status
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByProduct(ctx context.Context, productID products.ProductID) ([]*Booking, error)
	ListByHirer(ctx context.Context, hirerID string) ([]*Booking, error)
	ListByLister(ctx context.Context, listerID string) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	ProductID products.ProductID
	HirerID   string
	ListerID  string
	Range     daterange.DateRange
	Price     pricing.Breakdown
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	hirer := strings.TrimSpace(params.HirerID)
	lister := strings.TrimSpace(params.ListerID)
	if hirer == "" || lister == "" {
		return nil, fmt.Errorf("booking: hirer and lister are required: %w", fault.ErrValidation)
	}
	if hirer == lister {
		return nil, ErrSelfBooking
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if !params.Price.Balanced() {
		return nil, ErrUnbalancedPrice
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ProductID: params.ProductID,
		HirerID:   hirer,
		ListerID:  lister,
		Range:     params.Range,
		Price:     params.Price,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{
		BookingID:  b.ID,
		ProductID:  b.ProductID,
		HirerID:    b.HirerID,
		ListerID:   b.ListerID,
		Start:      b.Range.Start,
		End:        b.Range.End,
		Days:       b.Price.Days,
		HirerTotal: b.Price.HirerTotal.Amount,
		Currency:   b.Price.HirerTotal.Currency,
		At:         now,
	})
	return b, nil
}

// RoleOf returns ActorHirer or ActorLister for participants and "" otherwise.
func (b *Booking) RoleOf(userID string) Actor {
	switch strings.TrimSpace(userID) {
	case "":
		return ""
	case b.HirerID:
		return ActorHirer
	case b.ListerID:
		return ActorLister
	default:
		return ""
	}
}

func (b *Booking) IsParticipant(userID string) bool {
	return b.RoleOf(userID) != ""
}

// Transition moves the booking along one edge of the transition table.
func (b *Booking) Transition(actorID string, to Status, now time.Time) error {
	role := b.RoleOf(actorID)
	if role == "" {
		return ErrNotParticipant
	}
	required, ok := RequiredActor(b.Status, to)
	if !ok {
		return &TransitionError{From: b.Status, To: to}
	}
	if !required.Permits(role) {
		return ErrWrongRole
	}
	from := b.Status
	b.Status = to
	b.UpdatedAt = now.UTC()
	b.Record(BookingStatusChanged{
		BookingID: b.ID,
		ProductID: b.ProductID,
		HirerID:   b.HirerID,
		ListerID:  b.ListerID,
		ActorID:   strings.TrimSpace(actorID),
		From:      from,
		To:        to,
		At:        b.UpdatedAt,
	})
	return nil
}

// Cancel is open to either participant while the booking is PENDING or APPROVED.
func (b *Booking) Cancel(actorID, reason string, now time.Time) error {
	if b.RoleOf(actorID) == "" {
		return ErrNotParticipant
	}
	if !b.Status.Cancellable() {
		return &TransitionError{From: b.Status, To: StatusCancelled}
	}
	from := b.Status
	b.Status = StatusCancelled
	b.CancelReason = strings.TrimSpace(reason)
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{
		BookingID: b.ID,
		ProductID: b.ProductID,
		HirerID:   b.HirerID,
		ListerID:  b.ListerID,
		ActorID:   strings.TrimSpace(actorID),
		From:      from,
		Reason:    b.CancelReason,
		At:        b.UpdatedAt,
	})
	return nil
}

// CreatedNotice is the system message appended when a booking is requested.
func CreatedNotice(days int) string {
	return fmt.Sprintf("Booking request created for %d day(s).", days)
}

// StatusNotice is the system message appended on every status change.
func StatusNotice(status Status) string {
	return fmt.Sprintf("Booking status updated to %s.", status)
}
