package middleware

import (
	"context"

	"hirely/internal/app/commands"
	"hirely/internal/app/queries"
	"hirely/internal/app/uow"
)

// TxOptionsProvider picks unit options per command. Nil means defaults.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction binds one unit of work per command. Handlers join it through
// the context, so a booking transition and its ledger, thread and outbox
// writes commit or roll back together.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var opts uow.TxOptions
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := uow.Bind(ctx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}

// ReadOnlyTransaction gives each query a read-only unit unless one is bound
// already. The unit is always rolled back.
func ReadOnlyTransaction(factory uow.UoWFactory) QueryMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if _, ok := uow.FromContext(ctx); ok {
				return next.Ask(ctx, q)
			}
			unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
			if err != nil {
				return nil, err
			}
			execCtx := uow.Bind(ctx, unit)
			defer func() { _ = unit.Rollback(execCtx) }()
			return next.Ask(execCtx, q)
		})
	}
}
