package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/queries"
	"hirely/internal/app/uow"
	domainbooking "hirely/internal/domain/booking"
)

const (
	getBookingKey   = "booking.get"
	listBookingsKey = "booking.list"
)

const (
	RoleHirer  = "hirer"
	RoleLister = "lister"
)

type GetBookingQuery struct {
	BookingID string `validate:"required"`
	ViewerID  string `validate:"required"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) Actor() string { return q.ViewerID }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle only shows a booking to its hirer or lister.
func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	defer cleanup()

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	if !b.IsParticipant(q.ViewerID) {
		return dto.Booking{}, domainbooking.ErrNotParticipant
	}
	return dto.MapBooking(b, q.ViewerID), nil
}

// ListBookingsQuery lists a user's bookings as hirer, as lister, or both when
// Role is empty. Status filters by exact status when set.
type ListBookingsQuery struct {
	UserID string `validate:"required"`
	Role   string `validate:"omitempty,oneof=hirer lister"`
	Status string
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

func (q ListBookingsQuery) Actor() string { return q.UserID }

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	var status domainbooking.Status
	if strings.TrimSpace(q.Status) != "" {
		parsed, err := domainbooking.ParseStatus(q.Status)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		status = parsed
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	defer cleanup()

	var found []*domainbooking.Booking
	if q.Role == "" || q.Role == RoleHirer {
		asHirer, err := unit.Bookings().ListByHirer(execCtx, q.UserID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		found = append(found, asHirer...)
	}
	if q.Role == "" || q.Role == RoleLister {
		asLister, err := unit.Bookings().ListByLister(execCtx, q.UserID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		found = append(found, asLister...)
	}

	items := make([]dto.Booking, 0, len(found))
	for _, b := range found {
		if status != "" && b.Status != status {
			continue
		}
		items = append(items, dto.MapBooking(b, q.UserID))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if h.Logger != nil {
		h.Logger.Debug("bookings listed", "user_id", q.UserID, "role", q.Role, "status", status, "count", len(items))
	}
	return dto.BookingCollection{Items: items}, nil
}

var (
	_ queries.Handler[GetBookingQuery, dto.Booking]             = (*GetBookingHandler)(nil)
	_ queries.Handler[ListBookingsQuery, dto.BookingCollection] = (*ListBookingsHandler)(nil)
)
