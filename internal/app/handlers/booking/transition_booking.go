package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/outbox"
	"hirely/internal/app/uow"
	domainbooking "hirely/internal/domain/booking"
	domainledger "hirely/internal/domain/ledger"
	domainmessaging "hirely/internal/domain/messaging"
	"hirely/internal/domain/shared/fault"
)

const (
	transitionBookingKey = "booking.transition"
	cancelBookingKey     = "booking.cancel"
)

type TransitionBookingCommand struct {
	BookingID string `validate:"required"`
	ActorID   string `validate:"required"`
	To        string `validate:"required"`
}

func (c TransitionBookingCommand) Key() string { return transitionBookingKey }

func (c TransitionBookingCommand) Actor() string { return c.ActorID }

// TransitionBookingHandler applies one edge of the transition table together
// with its message, ledger and outbox writes.
type TransitionBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*dto.Booking, error) {
	to, err := domainbooking.ParseStatus(cmd.To)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now()
	var result dto.Booking
	var from domainbooking.Status
	err = support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		from = b.Status
		if err := b.Transition(cmd.ActorID, to, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := applyLedgerEffects(ctx, unit, b, now); err != nil {
			return err
		}
		if err := appendSystemMessage(ctx, unit, b, domainbooking.StatusNotice(b.Status), now); err != nil {
			return err
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, b.Drain()); err != nil {
			return err
		}
		result = dto.MapBooking(b, cmd.ActorID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking transitioned", "booking_id", result.ID, "from", from, "to", result.Status, "actor_id", cmd.ActorID)
	}
	return &result, nil
}

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	ActorID   string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) Actor() string { return c.ActorID }

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.Booking, error) {
	now := h.Clock.Now()
	var result dto.Booking
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := b.Cancel(cmd.ActorID, cmd.Reason, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := appendSystemMessage(ctx, unit, b, domainbooking.StatusNotice(b.Status), now); err != nil {
			return err
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, b.Drain()); err != nil {
			return err
		}
		result = dto.MapBooking(b, cmd.ActorID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "booking_id", result.ID, "actor_id", cmd.ActorID, "reason", result.CancelReason)
	}
	return &result, nil
}

// applyLedgerEffects writes the escrow entries keyed on the status just entered.
func applyLedgerEffects(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
	switch b.Status {
	case domainbooking.StatusPaid:
		hold, err := domainledger.NewEscrowHold(domainledger.TransactionID(support.NewID()), b.HirerID, string(b.ID), b.Price.HirerTotal, now)
		if err != nil {
			return err
		}
		return unit.Ledger().Append(ctx, hold)
	case domainbooking.StatusCompleted:
		entries, err := unit.Ledger().ListByBooking(ctx, string(b.ID))
		if err != nil {
			return err
		}
		for _, tx := range entries {
			if tx.Type == domainledger.TypeEscrowRelease {
				return domainledger.ErrAlreadyReleased
			}
		}
		if hold, ok := domainledger.FindHold(entries); ok {
			if err := hold.Settle(now); err != nil {
				return err
			}
			if err := unit.Ledger().SaveStatus(ctx, hold); err != nil {
				return err
			}
		}
		release, err := domainledger.NewEscrowRelease(domainledger.TransactionID(support.NewID()), b.ListerID, string(b.ID), b.Price.ListerPayout, now)
		if err != nil {
			return err
		}
		return unit.Ledger().Append(ctx, release)
	default:
		return nil
	}
}

func appendSystemMessage(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, text string, now time.Time) error {
	msg := domainmessaging.NewSystemMessage(domainmessaging.MessageID(support.NewID()), string(b.ID), text, now)
	return unit.Messages().Append(ctx, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, fault.ErrNotFound)
}

var (
	_ commands.Handler[TransitionBookingCommand, *dto.Booking] = (*TransitionBookingHandler)(nil)
	_ commands.Handler[CancelBookingCommand, *dto.Booking]     = (*CancelBookingHandler)(nil)
)
