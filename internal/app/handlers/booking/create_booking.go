package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/middleware"
	"hirely/internal/app/outbox"
	"hirely/internal/app/uow"
	domainavailability "hirely/internal/domain/availability"
	domainbooking "hirely/internal/domain/booking"
	domainmessaging "hirely/internal/domain/messaging"
	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/daterange"
	domainusers "hirely/internal/domain/users"
)

const createBookingKey = "booking.create"

// bookingQuantity is fixed on the booking path; quantity only feeds previews.
const bookingQuantity = 1

type CreateBookingCommand struct {
	BookingID       string
	HirerID         string    `validate:"required"`
	ProductID       string    `validate:"required"`
	Start           time.Time `validate:"required"`
	End             time.Time `validate:"required"`
	Note            string    `validate:"max=4000"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) Actor() string { return c.HirerID }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    pricing.Engine
	// EnforceAvailability rejects requests that touch an unavailable day.
	EnforceAvailability bool
	Encoder             outbox.EventEncoder
	Clock               support.Clock
	Logger              *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	now := h.Clock.Now()
	bookingID := strings.TrimSpace(cmd.BookingID)
	if bookingID == "" {
		bookingID = support.NewID()
	}
	var result dto.Booking
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		product, err := unit.Products().ByID(ctx, domainproducts.ProductID(cmd.ProductID))
		if err != nil {
			return err
		}
		if !product.Available() {
			return domainbooking.ErrProductUnavailable
		}
		if product.OwnedBy(cmd.HirerID) {
			return domainbooking.ErrSelfBooking
		}
		dr, err := daterange.New(cmd.Start, cmd.End)
		if err != nil {
			return err
		}
		days, err := pricing.DaysBetween(dr)
		if err != nil {
			return err
		}
		quote, err := h.Pricing.Quote(product.Tiers, days, bookingQuantity)
		if err != nil {
			return err
		}
		if h.EnforceAvailability {
			if err := ensureAvailable(ctx, unit, product, dr); err != nil {
				return err
			}
		}

		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:        domainbooking.BookingID(bookingID),
			ProductID: product.ID,
			HirerID:   cmd.HirerID,
			ListerID:  product.OwnerID,
			Range:     dr,
			Price:     quote,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}

		if note := strings.TrimSpace(cmd.Note); note != "" {
			msg, err := domainmessaging.NewUserMessage(domainmessaging.MessageID(support.NewID()), bookingID, b.HirerID, note, now)
			if err != nil {
				return err
			}
			if err := unit.Messages().Append(ctx, msg); err != nil {
				return err
			}
		}
		if err := appendSystemMessage(ctx, unit, b, domainbooking.CreatedNotice(days), now); err != nil {
			return err
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, b.Drain()); err != nil {
			return err
		}
		result = dto.MapBooking(b, cmd.HirerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", result.ID, "product_id", result.ProductID, "hirer_id", result.HirerID, "days", result.Price.Days)
	}
	return &result, nil
}

func ensureAvailable(ctx context.Context, unit uow.UnitOfWork, product *domainproducts.Product, dr daterange.DateRange) error {
	var blocked []string
	owner, err := unit.Users().ByID(ctx, domainusers.ID(product.OwnerID))
	switch {
	case err == nil:
		blocked = owner.BlockedDates
	case isNotFound(err):
	default:
		return err
	}
	bookings, err := unit.Bookings().ListByProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	calendar := domainavailability.Build(product.ID, blocked, bookings)
	if err := calendar.Reserve(dr); err != nil {
		return err
	}
	return nil
}

var _ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
