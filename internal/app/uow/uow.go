package uow

import (
	"context"
	"errors"

	appoutbox "hirely/internal/app/outbox"
	domainbooking "hirely/internal/domain/booking"
	domainledger "hirely/internal/domain/ledger"
	domainmessaging "hirely/internal/domain/messaging"
	domainproducts "hirely/internal/domain/products"
	domainreviews "hirely/internal/domain/reviews"
	domainusers "hirely/internal/domain/users"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Writes
// made through any accessor, the outbox included, commit or roll back together.
type UnitOfWork interface {
	Products() domainproducts.Repository
	Users() domainusers.Repository
	Bookings() domainbooking.Repository
	Messages() domainmessaging.Repository
	Ledger() domainledger.Repository
	Reviews() domainreviews.Repository
	Outbox() appoutbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units whose repositories read the
// transaction handle from the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

var ErrUnitOfWorkMissing = errors.New("uow: no unit of work bound and no factory to start one")

type unitKey struct{}

// Bind stores unit in ctx, injecting driver state first when supported.
// Handlers that find a bound unit join it instead of starting their own.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return WithUnit(ctx, unit)
}

// WithUnit stores unit without driver injection. Tests use it to run two
// handlers against units they control.
func WithUnit(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}
