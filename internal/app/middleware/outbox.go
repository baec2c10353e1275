package middleware

import (
	"context"
	"log/slog"

	"hirely/internal/app/commands"
	"hirely/internal/app/outbox"
)

// OutboxFlush wakes the relay once a command has committed. It must sit
// outside Transaction; a failed wake-up is logged and the relay's poll picks
// the records up later.
func OutboxFlush(flusher outbox.Flusher, logger *slog.Logger) CommandMiddleware {
	if flusher == nil {
		panic("middleware: outbox flusher required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if flushErr := flusher.Flush(ctx); flushErr != nil && logger != nil {
				logger.Warn("outbox wake-up failed", "command", cmd.Key(), "error", flushErr)
			}
			return res, nil
		})
	}
}
