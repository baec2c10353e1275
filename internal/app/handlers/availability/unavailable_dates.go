package availability

import (
	"context"
	"errors"

	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/queries"
	"hirely/internal/app/uow"
	domainavailability "hirely/internal/domain/availability"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/fault"
	domainusers "hirely/internal/domain/users"
)

const unavailableDatesKey = "availability.unavailable_dates"

type UnavailableDatesQuery struct {
	ProductID string `validate:"required"`
}

func (q UnavailableDatesQuery) Key() string { return unavailableDatesKey }

// UnavailableDatesHandler projects the owner's blocked dates and the product's
// active bookings into one sorted set of days. It is computed per request.
type UnavailableDatesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UnavailableDatesHandler) Handle(ctx context.Context, q UnavailableDatesQuery) (dto.UnavailableDates, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UnavailableDates{}, err
	}
	defer cleanup()

	product, err := unit.Products().ByID(execCtx, domainproducts.ProductID(q.ProductID))
	if err != nil {
		return dto.UnavailableDates{}, err
	}
	var blocked []string
	owner, err := unit.Users().ByID(execCtx, domainusers.ID(product.OwnerID))
	switch {
	case err == nil:
		blocked = owner.BlockedDates
	case errors.Is(err, fault.ErrNotFound):
	default:
		return dto.UnavailableDates{}, err
	}
	bookings, err := unit.Bookings().ListByProduct(execCtx, product.ID)
	if err != nil {
		return dto.UnavailableDates{}, err
	}
	calendar := domainavailability.Build(product.ID, blocked, bookings)
	return dto.UnavailableDates{ProductID: string(product.ID), Dates: calendar.Dates()}, nil
}

var _ queries.Handler[UnavailableDatesQuery, dto.UnavailableDates] = (*UnavailableDatesHandler)(nil)
