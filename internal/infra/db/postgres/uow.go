package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appoutbox "hirely/internal/app/outbox"
	"hirely/internal/app/uow"
	domainbooking "hirely/internal/domain/booking"
	domainledger "hirely/internal/domain/ledger"
	domainmessaging "hirely/internal/domain/messaging"
	domainproducts "hirely/internal/domain/products"
	domainreviews "hirely/internal/domain/reviews"
	"hirely/internal/domain/shared/fault"
	domainusers "hirely/internal/domain/users"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing pool")

// Factory begins READ COMMITTED transactions. Bookings and products rely on
// version checks, payouts on advisory locks.
type Factory struct {
	pool     *pgxpool.Pool
	products *ProductRepository
	users    *UserRepository
	bookings *BookingRepository
	messages *MessageRepository
	ledger   *LedgerRepository
	reviews  *ReviewRepository
	outbox   *OutboxStore
}

func NewFactory(pool *pgxpool.Pool) *Factory {
	return &Factory{
		pool:     pool,
		products: &ProductRepository{pool: pool},
		users:    &UserRepository{pool: pool},
		bookings: &BookingRepository{pool: pool},
		messages: &MessageRepository{pool: pool},
		ledger:   &LedgerRepository{pool: pool},
		reviews:  &ReviewRepository{pool: pool},
		outbox:   NewOutboxStore(pool),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.pool == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	tx, err := f.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Unit{factory: f, tx: tx}, nil
}

type Unit struct {
	factory *Factory
	tx      pgx.Tx
}

func (u *Unit) Products() domainproducts.Repository { return u.factory.products }

func (u *Unit) Users() domainusers.Repository { return u.factory.users }

func (u *Unit) Bookings() domainbooking.Repository { return u.factory.bookings }

func (u *Unit) Messages() domainmessaging.Repository { return u.factory.messages }

func (u *Unit) Ledger() domainledger.Repository { return u.factory.ledger }

func (u *Unit) Reviews() domainreviews.Repository { return u.factory.reviews }

func (u *Unit) Outbox() appoutbox.Outbox { return u.factory.outbox }

func (u *Unit) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		if isContention(err) {
			return fmt.Errorf("postgres: commit: %w: %v", fault.ErrConcurrencyConflict, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return withTx(ctx, u.tx)
}

var (
	_ uow.UoWFactory      = (*Factory)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
)
