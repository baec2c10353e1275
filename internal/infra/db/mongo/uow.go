package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

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

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Repositories are stateless; they pick the session up from the context that
// uow.Bind prepares.
type Factory struct {
	DB     *mongo.Database
	Outbox appoutbox.Outbox

	products *ProductRepository
	users    *UserRepository
	bookings *BookingRepository
	messages *MessageRepository
	ledger   *LedgerRepository
	reviews  *ReviewRepository
}

func NewFactory(db *mongo.Database, outbox appoutbox.Outbox) *Factory {
	return &Factory{
		DB:       db,
		Outbox:   outbox,
		products: NewProductRepository(db),
		users:    NewUserRepository(db),
		bookings: NewBookingRepository(db),
		messages: NewMessageRepository(db),
		ledger:   NewLedgerRepository(db),
		reviews:  NewReviewRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.DB == nil || f.products == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	} else {
		txnOpts = txnOpts.SetReadConcern(f.DB.ReadConcern())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{factory: f, session: session}, nil
}

type Unit struct {
	factory *Factory
	session mongo.Session
}

func (u *Unit) Products() domainproducts.Repository { return u.factory.products }

func (u *Unit) Users() domainusers.Repository { return u.factory.users }

func (u *Unit) Bookings() domainbooking.Repository { return u.factory.bookings }

func (u *Unit) Messages() domainmessaging.Repository { return u.factory.messages }

func (u *Unit) Ledger() domainledger.Repository { return u.factory.ledger }

func (u *Unit) Reviews() domainreviews.Repository { return u.factory.reviews }

func (u *Unit) Outbox() appoutbox.Outbox { return u.factory.Outbox }

// Commit maps transient write conflicts to a concurrency conflict so callers
// see the same kind whichever store they run on.
func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("mongo: commit: %w: %v", fault.ErrConcurrencyConflict, err)
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = (*Factory)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
)
