package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityapp "hirely/internal/app/handlers/availability"
	bookingapp "hirely/internal/app/handlers/booking"
	productsapp "hirely/internal/app/handlers/products"
	"hirely/internal/app/handlers/support"
	usersapp "hirely/internal/app/handlers/users"
	"hirely/internal/domain/pricing"
	"hirely/internal/domain/shared/fault"
	"hirely/internal/infra/storage/memory"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func seed(t *testing.T, store *memory.Store, registerOwner bool) {
	t.Helper()
	ctx := context.Background()
	clock := support.Clock(func() time.Time { return now })
	if registerOwner {
		_, err := (&usersapp.RegisterUserHandler{UoWFactory: store, Clock: clock}).Handle(ctx, usersapp.RegisterUserCommand{UserID: "lister-1", Email: "lister@example.com", Name: "Lister"})
		require.NoError(t, err)
		_, err = (&usersapp.BlockDatesHandler{UoWFactory: store, Clock: clock}).Handle(ctx, usersapp.BlockDatesCommand{UserID: "lister-1", Dates: []string{"2025-03-20", "2025-03-11"}})
		require.NoError(t, err)
	}
	_, err := (&productsapp.CreateProductHandler{UoWFactory: store, Currency: "USD", Clock: clock}).Handle(ctx, productsapp.CreateProductCommand{
		ProductID: "product-1",
		OwnerID:   "lister-1",
		Title:     "Kayak",
		Tiers:     productsapp.TierInput{OneDay: 3000},
	})
	require.NoError(t, err)

	create := &bookingapp.CreateBookingHandler{UoWFactory: store, Pricing: pricing.NewEngine(pricing.DefaultRates()), Clock: clock}
	active, err := create.Handle(ctx, bookingapp.CreateBookingCommand{HirerID: "hirer-1", ProductID: "product-1", Start: day("2025-03-10"), End: day("2025-03-12")})
	require.NoError(t, err)
	require.NotEmpty(t, active.ID)

	cancelled, err := create.Handle(ctx, bookingapp.CreateBookingCommand{HirerID: "hirer-2", ProductID: "product-1", Start: day("2025-04-01"), End: day("2025-04-03")})
	require.NoError(t, err)
	_, err = (&bookingapp.CancelBookingHandler{UoWFactory: store, Clock: clock}).Handle(ctx, bookingapp.CancelBookingCommand{BookingID: cancelled.ID, ActorID: "hirer-2"})
	require.NoError(t, err)
}

func TestUnavailableDates(t *testing.T) {
	type testCase struct {
		name          string
		registerOwner bool
		productID     string
		want          []string
		wantErr       error
	}

	tests := []testCase{
		{
			name:          "blocked and booked days merged",
			registerOwner: true,
			productID:     "product-1",
			want:          []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-20"},
		},
		{
			name:      "owner without profile",
			productID: "product-1",
			want:      []string{"2025-03-10", "2025-03-11", "2025-03-12"},
		},
		{
			name:          "unknown product",
			registerOwner: true,
			productID:     "missing",
			wantErr:       fault.ErrNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			seed(t, store, tc.registerOwner)
			h := &availabilityapp.UnavailableDatesHandler{UoWFactory: store}

			got, err := h.Handle(context.Background(), availabilityapp.UnavailableDatesQuery{ProductID: tc.productID})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.productID, got.ProductID)
			assert.Equal(t, tc.want, got.Dates)
		})
	}
}
