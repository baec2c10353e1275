package middleware

import (
	"context"
	"log/slog"
	"time"

	"hirely/internal/app/commands"
	"hirely/internal/app/queries"
	"hirely/internal/domain/shared/fault"
)

// CommandLogging logs rejected commands at warn with their fault kind and
// successful ones at debug.
func CommandLogging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
			if actor, ok := cmd.(interface{ Actor() string }); ok {
				attrs = append(attrs, "actor", actor.Actor())
			}
			if err != nil {
				logger.Warn("command failed", append(attrs, "kind", fault.Kind(err), "error", err)...)
				return nil, err
			}
			logger.Debug("command handled", attrs...)
			return res, nil
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			if err != nil {
				logger.Debug("query failed", "query", q.Key(), "kind", fault.Kind(err), "duration", time.Since(start), "error", err)
			}
			return res, err
		})
	}
}
