package middleware_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/app/commands"
	"hirely/internal/app/middleware"
	"hirely/internal/app/uow"
	"hirely/internal/app/validation"
	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/fault"
	"hirely/internal/domain/shared/money"
	"hirely/internal/infra/storage/memory"
)

type chargeResult struct {
	Charged int64 `json:"charged"`
}

type chargeCommand struct {
	UserID string `validate:"required"`
	Amount int64
	Token  string
}

func (c chargeCommand) Key() string { return "test.charge" }

func (c chargeCommand) IdempotencyKey() string { return c.Token }

func (c chargeCommand) ResultPrototype() any { return &chargeResult{} }

func countingBus(calls *int, fail error) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[chargeCommand, *chargeResult](bus, commands.HandlerFunc[chargeCommand, *chargeResult](func(_ context.Context, cmd chargeCommand) (*chargeResult, error) {
		*calls++
		if fail != nil {
			return nil, fail
		}
		return &chargeResult{Charged: cmd.Amount}, nil
	}))
	return bus
}

func TestIdempotencyReplays(t *testing.T) {
	type testCase struct {
		name      string
		fail      error
		wantCalls int
		wantKind  string
	}

	tests := []testCase{
		{name: "success is replayed", wantCalls: 1},
		{name: "business failure keeps kind", fail: fmt.Errorf("ledger: too much: %w", fault.ErrInsufficientBalance), wantCalls: 1, wantKind: "INSUFFICIENT_BALANCE"},
		{name: "conflicts are retried", fail: fmt.Errorf("booking: raced: %w", fault.ErrConcurrencyConflict), wantCalls: 2, wantKind: "CONCURRENCY_CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			bus := middleware.ChainCommands(countingBus(&calls, tt.fail), middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
			cmd := chargeCommand{UserID: "u1", Amount: 500, Token: "key-1"}

			first, firstErr := commands.Dispatch[chargeCommand, *chargeResult](context.Background(), bus, cmd)
			second, secondErr := commands.Dispatch[chargeCommand, *chargeResult](context.Background(), bus, cmd)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.fail == nil {
				require.NoError(t, firstErr)
				require.NoError(t, secondErr)
				assert.Equal(t, first, second)
				assert.Equal(t, int64(500), second.Charged)
				return
			}
			assert.Equal(t, tt.wantKind, fault.Kind(firstErr))
			assert.Equal(t, tt.wantKind, fault.Kind(secondErr))
			assert.Equal(t, firstErr.Error(), secondErr.Error())
		})
	}
}

func TestIdempotencyWithoutKeyAlwaysRuns(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, nil), middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))

	for i := 0; i < 3; i++ {
		_, err := bus.Dispatch(context.Background(), chargeCommand{UserID: "u1", Amount: 1})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

// blockingBus counts handler runs and holds each one until release closes.
func blockingBus(calls *atomic.Int32, release <-chan struct{}) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[chargeCommand, *chargeResult](bus, commands.HandlerFunc[chargeCommand, *chargeResult](func(_ context.Context, cmd chargeCommand) (*chargeResult, error) {
		n := calls.Add(1)
		<-release
		return &chargeResult{Charged: cmd.Amount * int64(n)}, nil
	}))
	return bus
}

func TestIdempotencyRunsConcurrentDuplicatesOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	bus := middleware.ChainCommands(blockingBus(&calls, release), middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	cmd := chargeCommand{UserID: "u1", Amount: 500, Token: "same-key"}

	const workers = 8
	results := make([]*chargeResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = commands.Dispatch[chargeCommand, *chargeResult](context.Background(), bus, cmd)
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(500), results[i].Charged)
	}
}

func TestIdempotencyDuplicateStopsWaitingOnCancel(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	defer close(release)
	bus := middleware.ChainCommands(blockingBus(&calls, release), middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	cmd := chargeCommand{UserID: "u1", Amount: 500, Token: "same-key"}

	go func() {
		_, _ = bus.Dispatch(context.Background(), cmd)
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := bus.Dispatch(ctx, cmd)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChainOrderIsOutermostFirst(t *testing.T) {
	var order []string
	trace := func(name string) middleware.CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return tracingBus{name: name, next: next, order: &order}
		}
	}
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, nil), trace("outer"), trace("inner"))

	_, err := bus.Dispatch(context.Background(), chargeCommand{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type tracingBus struct {
	name  string
	next  commands.Bus
	order *[]string
}

func (b tracingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	*b.order = append(*b.order, b.name)
	return b.next.Dispatch(ctx, cmd)
}

func TestValidationRejectsMissingFields(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, nil), middleware.Validation(validation.New()))

	_, err := bus.Dispatch(context.Background(), chargeCommand{Amount: 1})
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Equal(t, 0, calls)
}

type saveProductCommand struct {
	ID   string
	Fail bool
}

func (c saveProductCommand) Key() string { return "test.save_product" }

func TestTransactionCommitsOnlyOnSuccess(t *testing.T) {
	store := memory.NewStore()
	inner := commands.NewInMemoryBus()
	commands.RegisterHandler[saveProductCommand, any](inner, commands.HandlerFunc[saveProductCommand, any](func(ctx context.Context, cmd saveProductCommand) (any, error) {
		unit, ok := uow.FromContext(ctx)
		if !ok {
			return nil, uow.ErrUnitOfWorkMissing
		}
		p, err := domainproducts.NewProduct(domainproducts.CreateParams{
			ID:      domainproducts.ProductID(cmd.ID),
			OwnerID: "owner",
			Title:   "Ladder",
			Tiers:   pricing.Tiers{OneDay: money.Must(1000, "USD")},
			Now:     time.Now(),
		})
		if err != nil {
			return nil, err
		}
		if err := unit.Products().Save(ctx, p); err != nil {
			return nil, err
		}
		if cmd.Fail {
			return nil, fmt.Errorf("handler: %w", fault.ErrConflict)
		}
		return nil, nil
	}))
	bus := middleware.ChainCommands(inner, middleware.Transaction(store, nil))

	_, err := bus.Dispatch(context.Background(), saveProductCommand{ID: "kept"})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), saveProductCommand{ID: "dropped", Fail: true})
	require.ErrorIs(t, err, fault.ErrConflict)

	ctx := context.Background()
	unit, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)

	_, err = unit.Products().ByID(ctx, "kept")
	assert.NoError(t, err)
	_, err = unit.Products().ByID(ctx, "dropped")
	assert.ErrorIs(t, err, fault.ErrNotFound)
}
