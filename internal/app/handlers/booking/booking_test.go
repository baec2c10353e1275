package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	bookingapp "hirely/internal/app/handlers/booking"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/uow"
	domainbooking "hirely/internal/domain/booking"
	domainledger "hirely/internal/domain/ledger"
	domainmessaging "hirely/internal/domain/messaging"
	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/fault"
	"hirely/internal/domain/shared/money"
	domainusers "hirely/internal/domain/users"
	"hirely/internal/infra/storage/memory"
)

const (
	hirerID   = "hirer-1"
	listerID  = "lister-1"
	productID = "product-1"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memory.Store
	create     *bookingapp.CreateBookingHandler
	transition *bookingapp.TransitionBookingHandler
	cancel     *bookingapp.CancelBookingHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	seedProduct(t, store)
	return newFixtureOn(store, store)
}

func newFixtureOn(store *memory.Store, factory uow.UoWFactory) *fixture {
	clock := support.Clock(func() time.Time { return now })
	return &fixture{
		store:      store,
		create:     &bookingapp.CreateBookingHandler{UoWFactory: factory, Pricing: pricing.NewEngine(pricing.DefaultRates()), EnforceAvailability: true, Clock: clock},
		transition: &bookingapp.TransitionBookingHandler{UoWFactory: factory, Clock: clock},
		cancel:     &bookingapp.CancelBookingHandler{UoWFactory: factory, Clock: clock},
	}
}

func seedProduct(t *testing.T, store *memory.Store) {
	t.Helper()
	usd := func(amount int64) *money.Money {
		m := money.Must(amount, "USD")
		return &m
	}
	product, err := domainproducts.NewProduct(domainproducts.CreateParams{
		ID:      productID,
		OwnerID: listerID,
		Title:   "Camping tent",
		Tiers:   pricing.Tiers{OneDay: *usd(2000), ThreeDay: usd(5000), SevenDay: usd(10000)},
		Now:     now,
	})
	require.NoError(t, err)
	lister, err := domainusers.NewUser(domainusers.CreateParams{ID: listerID, Email: "lister@example.com", Name: "Lister", CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, lister.BlockDates([]string{"2025-04-01"}, now))

	ctx := context.Background()
	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Products().Save(ctx, product))
	require.NoError(t, unit.Users().Save(ctx, lister))
	require.NoError(t, unit.Commit(ctx))
}

func (f *fixture) book(t *testing.T, start, end time.Time) string {
	t.Helper()
	created, err := f.create.Handle(context.Background(), bookingapp.CreateBookingCommand{
		HirerID:   hirerID,
		ProductID: productID,
		Start:     start,
		End:       end,
	})
	require.NoError(t, err)
	return created.ID
}

func (f *fixture) move(t *testing.T, bookingID, actor string, to domainbooking.Status) {
	t.Helper()
	_, err := f.transition.Handle(context.Background(), bookingapp.TransitionBookingCommand{BookingID: bookingID, ActorID: actor, To: string(to)})
	require.NoError(t, err)
}

func (f *fixture) read(t *testing.T, bookingID string) (*domainbooking.Booking, []*domainmessaging.Message, []*domainledger.Transaction) {
	t.Helper()
	ctx := context.Background()
	unit, err := f.store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	require.NoError(t, err)
	thread, err := unit.Messages().ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	entries, err := unit.Ledger().ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	return b, thread, entries
}

func days(from time.Time, n int) time.Time { return from.AddDate(0, 0, n) }

func TestBookingLifecycle(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	id := f.book(t, start, days(start, 5))

	b, thread, _ := f.read(t, id)
	assert.Equal(t, domainbooking.StatusPending, b.Status)
	assert.Equal(t, int64(5000), b.Price.DailyRate.Amount)
	assert.Equal(t, int64(25000), b.Price.BaseRental.Amount)
	assert.Equal(t, int64(3750), b.Price.PlatformFee.Amount)
	assert.Equal(t, int64(28750), b.Price.HirerTotal.Amount)
	assert.Equal(t, int64(25000), b.Price.ListerPayout.Amount)
	require.Len(t, thread, 1)
	assert.Equal(t, "Booking request created for 5 day(s).", thread[0].Text)

	f.move(t, id, listerID, domainbooking.StatusApproved)
	b, thread, _ = f.read(t, id)
	assert.Equal(t, domainbooking.StatusApproved, b.Status)
	require.Len(t, thread, 2)
	assert.Equal(t, domainmessaging.TypeSystem, thread[1].Type)
	assert.Equal(t, "Booking status updated to APPROVED.", thread[1].Text)

	f.move(t, id, hirerID, domainbooking.StatusPaid)
	_, _, entries := f.read(t, id)
	require.Len(t, entries, 1)
	assert.Equal(t, domainledger.TypeEscrow, entries[0].Type)
	assert.Equal(t, domainledger.StatusPending, entries[0].Status)
	assert.Equal(t, hirerID, entries[0].UserID)
	assert.Equal(t, int64(28750), entries[0].Amount.Amount)

	f.move(t, id, listerID, domainbooking.StatusCollected)
	f.move(t, id, hirerID, domainbooking.StatusReturned)
	f.move(t, id, listerID, domainbooking.StatusCompleted)

	b, thread, entries = f.read(t, id)
	assert.Equal(t, domainbooking.StatusCompleted, b.Status)
	assert.Len(t, thread, 6)
	require.Len(t, entries, 2)
	for _, tx := range entries {
		assert.Equal(t, domainledger.StatusCompleted, tx.Status)
		if tx.Type == domainledger.TypeEscrowRelease {
			assert.Equal(t, listerID, tx.UserID)
			assert.Equal(t, int64(25000), tx.Amount.Amount)
		}
	}

	names := make([]string, 0)
	for _, rec := range f.store.OutboxRecords() {
		names = append(names, rec.Name)
	}
	assert.Equal(t, "booking.requested", names[0])
	assert.Len(t, names, 6)
}

func TestTransitionErrors(t *testing.T) {
	type testCase struct {
		name    string
		actor   string
		to      string
		wantErr error
	}

	tests := []testCase{
		{name: "skip approval", actor: hirerID, to: "PAID", wantErr: fault.ErrInvalidTransition},
		{name: "hirer cannot approve", actor: hirerID, to: "APPROVED", wantErr: fault.ErrForbidden},
		{name: "stranger", actor: "someone", to: "DECLINED", wantErr: fault.ErrForbidden},
		{name: "unknown status", actor: listerID, to: "LOST", wantErr: fault.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
			id := f.book(t, start, days(start, 2))

			_, err := f.transition.Handle(context.Background(), bookingapp.TransitionBookingCommand{BookingID: id, ActorID: tt.actor, To: tt.to})
			assert.ErrorIs(t, err, tt.wantErr)

			b, thread, entries := f.read(t, id)
			assert.Equal(t, domainbooking.StatusPending, b.Status)
			assert.Len(t, thread, 1)
			assert.Empty(t, entries)
		})
	}

	f := newFixture(t)
	_, err := f.transition.Handle(context.Background(), bookingapp.TransitionBookingCommand{BookingID: "missing", ActorID: hirerID, To: "PAID"})
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestCreateBookingRejects(t *testing.T) {
	type testCase struct {
		name    string
		cmd     bookingapp.CreateBookingCommand
		wantErr error
	}

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []testCase{
		{
			name:    "own product",
			cmd:     bookingapp.CreateBookingCommand{HirerID: listerID, ProductID: productID, Start: start, End: days(start, 2)},
			wantErr: fault.ErrSelfBooking,
		},
		{
			name:    "end before start",
			cmd:     bookingapp.CreateBookingCommand{HirerID: hirerID, ProductID: productID, Start: start, End: days(start, -1)},
			wantErr: fault.ErrInvalidDateRange,
		},
		{
			name:    "unknown product",
			cmd:     bookingapp.CreateBookingCommand{HirerID: hirerID, ProductID: "nope", Start: start, End: days(start, 2)},
			wantErr: fault.ErrNotFound,
		},
		{
			name:    "owner blocked day",
			cmd:     bookingapp.CreateBookingCommand{HirerID: hirerID, ProductID: productID, Start: time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)},
			wantErr: fault.ErrProductUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.create.Handle(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	first := f.book(t, start, days(start, 3))

	_, err := f.create.Handle(context.Background(), bookingapp.CreateBookingCommand{HirerID: "hirer-2", ProductID: productID, Start: days(start, 2), End: days(start, 4)})
	assert.ErrorIs(t, err, fault.ErrProductUnavailable)

	_, err = f.cancel.Handle(context.Background(), bookingapp.CancelBookingCommand{BookingID: first, ActorID: hirerID, Reason: "plans changed"})
	require.NoError(t, err)

	f.book(t, days(start, 2), days(start, 4))
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	id := f.book(t, start, days(start, 2))
	f.move(t, id, listerID, domainbooking.StatusApproved)

	got, err := f.cancel.Handle(context.Background(), bookingapp.CancelBookingCommand{BookingID: id, ActorID: listerID, Reason: "broken zip"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", got.Status)
	assert.Equal(t, "broken zip", got.CancelReason)

	_, err = f.cancel.Handle(context.Background(), bookingapp.CancelBookingCommand{BookingID: id, ActorID: listerID})
	assert.ErrorIs(t, err, fault.ErrInvalidTransition)

	_, thread, _ := f.read(t, id)
	assert.Equal(t, "Booking status updated to CANCELLED.", thread[len(thread)-1].Text)
}

func TestConcurrentPaymentRecordsOneEscrow(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	id := f.book(t, start, days(start, 2))
	f.move(t, id, listerID, domainbooking.StatusApproved)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
		ready    = make(chan struct{})
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ready
			_, err := f.transition.Handle(context.Background(), bookingapp.TransitionBookingCommand{BookingID: id, ActorID: hirerID, To: "PAID"})
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
		}()
	}
	close(ready)
	wg.Wait()

	require.Len(t, failures, 1)
	assert.True(t, errors.Is(failures[0], fault.ErrConcurrencyConflict) || errors.Is(failures[0], fault.ErrInvalidTransition), "got %v", failures[0])

	b, _, entries := f.read(t, id)
	assert.Equal(t, domainbooking.StatusPaid, b.Status)
	escrows := 0
	for _, tx := range entries {
		if tx.Type == domainledger.TypeEscrow {
			escrows++
		}
	}
	assert.Equal(t, 1, escrows)
}

// overrideUnit swaps selected repositories of a memory unit.
type overrideUnit struct {
	uow.UnitOfWork
	ledger   domainledger.Repository
	messages domainmessaging.Repository
}

func (u overrideUnit) Ledger() domainledger.Repository {
	if u.ledger != nil {
		return u.ledger
	}
	return u.UnitOfWork.Ledger()
}

func (u overrideUnit) Messages() domainmessaging.Repository {
	if u.messages != nil {
		return u.messages
	}
	return u.UnitOfWork.Messages()
}

type overrideFactory struct {
	store    *memory.Store
	ledger   domainledger.Repository
	messages domainmessaging.Repository
}

func (f overrideFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.store.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return overrideUnit{UnitOfWork: unit, ledger: f.ledger, messages: f.messages}, nil
}

func TestTransitionIsAtomic(t *testing.T) {
	type testCase struct {
		name  string
		from  []domainbooking.Status
		to    domainbooking.Status
		actor string
		setup func(ctrl *gomock.Controller) overrideFactory
	}

	boom := errors.New("storage unavailable")

	tests := []testCase{
		{
			name:  "ledger write fails on payment",
			from:  []domainbooking.Status{domainbooking.StatusApproved},
			to:    domainbooking.StatusPaid,
			actor: hirerID,
			setup: func(ctrl *gomock.Controller) overrideFactory {
				ledger := domainledger.NewMockRepository(ctrl)
				ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(boom)
				return overrideFactory{ledger: ledger}
			},
		},
		{
			name:  "message write fails on approval",
			to:    domainbooking.StatusApproved,
			actor: listerID,
			setup: func(ctrl *gomock.Controller) overrideFactory {
				messages := domainmessaging.NewMockRepository(ctrl)
				messages.EXPECT().Append(gomock.Any(), gomock.Any()).Return(boom)
				return overrideFactory{messages: messages}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newFixture(t)
			start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
			id := f.book(t, start, days(start, 2))
			for _, step := range tt.from {
				actor := listerID
				if step == domainbooking.StatusPaid {
					actor = hirerID
				}
				f.move(t, id, actor, step)
			}
			before, threadBefore, entriesBefore := f.read(t, id)
			outboxBefore := len(f.store.OutboxRecords())

			factory := tt.setup(ctrl)
			factory.store = f.store
			failing := newFixtureOn(f.store, factory)

			_, err := failing.transition.Handle(context.Background(), bookingapp.TransitionBookingCommand{BookingID: id, ActorID: tt.actor, To: string(tt.to)})
			require.ErrorIs(t, err, boom)

			after, threadAfter, entriesAfter := f.read(t, id)
			assert.Equal(t, before.Status, after.Status)
			assert.Equal(t, before.Version, after.Version)
			assert.Len(t, threadAfter, len(threadBefore))
			assert.Len(t, entriesAfter, len(entriesBefore))
			assert.Len(t, f.store.OutboxRecords(), outboxBefore)
		})
	}
}
