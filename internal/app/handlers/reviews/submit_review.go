package reviews

import (
	"context"
	"errors"
	"log/slog"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/outbox"
	"hirely/internal/app/uow"
	domainbooking "hirely/internal/domain/booking"
	domainreviews "hirely/internal/domain/reviews"
	"hirely/internal/domain/shared/fault"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand creates the review for a completed booking.
type SubmitReviewCommand struct {
	BookingID string `validate:"required"`
	AuthorID  string `validate:"required"`
	Rating    int    `validate:"min=1,max=5"`
	Comment   string
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

func (c SubmitReviewCommand) Actor() string { return c.AuthorID }

type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (*dto.Review, error) {
	now := h.Clock.Now()
	var result dto.Review
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		review, err := domainreviews.Submit(domainreviews.SubmitParams{
			ID:        domainreviews.ReviewID(support.NewID()),
			Booking:   b,
			AuthorID:  cmd.AuthorID,
			Rating:    cmd.Rating,
			Comment:   cmd.Comment,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		existing, err := unit.Reviews().ByBooking(ctx, b.ID)
		switch {
		case err == nil && existing != nil:
			return domainreviews.ErrAlreadyReviewed
		case err != nil && !errors.Is(err, fault.ErrNotFound):
			return err
		}
		if err := unit.Reviews().Save(ctx, review); err != nil {
			return err
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, review.Drain()); err != nil {
			return err
		}
		result = dto.MapReview(review)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("review submitted", "booking_id", result.BookingID, "product_id", result.ProductID, "author_id", cmd.AuthorID, "rating", result.Rating)
	}
	return &result, nil
}

var _ commands.Handler[SubmitReviewCommand, *dto.Review] = (*SubmitReviewHandler)(nil)
