package outbox

import (
	"context"
	"log/slog"
)

// LogProducer stands in for a broker when none is configured. The relay still
// drains the outbox and each event is logged instead of published.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Logger != nil {
		p.Logger.Info("event relayed", "topic", topic, "key", key, "ce_id", headers["ce-id"], "ce_type", headers["ce-type"], "bytes", len(payload))
	}
	return nil
}

var _ Producer = LogProducer{}
