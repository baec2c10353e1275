package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appoutbox "hirely/internal/app/outbox"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays stored records to the broker as CloudEvents. It polls every
// Interval and also wakes when Flush is called after a commit.
type Worker struct {
	Store       Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger

	once sync.Once
	wake chan struct{}
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	w.init()
	workerID := w.workerID()
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.wake:
		}
		if err := w.drain(ctx, workerID); err != nil {
			return err
		}
	}
}

// Flush nudges the relay without blocking the caller.
func (w *Worker) Flush(context.Context) error {
	w.init()
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

func (w *Worker) init() {
	w.once.Do(func() {
		w.wake = make(chan struct{}, 1)
	})
}

func (w *Worker) drain(ctx context.Context, workerID string) error {
	for {
		done, err := w.processOnce(ctx, workerID)
		if err != nil || done {
			return err
		}
	}
}

// processOnce relays one record and reports whether the store had nothing due.
func (w *Worker) processOnce(ctx context.Context, workerID string) (bool, error) {
	rec, err := w.Store.Claim(ctx, workerID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return true, ctx.Err()
		}
		return true, err
	}
	if rec == nil {
		return true, nil
	}
	topic := w.topicFor(rec.Name)
	payload, headers, err := w.formatPayload(rec)
	if err != nil {
		w.fail(ctx, rec, err)
		return false, nil
	}
	if err := w.Producer.Publish(ctx, topic, rec.Aggregate, payload, headers); err != nil {
		w.fail(ctx, rec, err)
		return false, nil
	}
	return false, w.Store.MarkSent(ctx, rec.ID)
}

func (w *Worker) fail(ctx context.Context, rec *Record, cause error) {
	if w.Logger != nil {
		w.Logger.Warn("outbox relay failed", "event_id", rec.ID, "event", rec.Name, "attempts", rec.Attempts, "error", cause)
	}
	_ = w.Store.MarkFailed(ctx, rec.ID, w.nextRetry(rec.Attempts), cause.Error())
}

func (w *Worker) formatPayload(rec *Record) ([]byte, map[string]string, error) {
	if rec.Headers == nil {
		rec.Headers = map[string]string{}
	}
	data := map[string]any{}
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce-id":        rec.ID,
		"ce-type":      rec.Name + ".v1",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "booking.status_changed" to "<prefix>booking.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://hirely"
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

var _ appoutbox.Flusher = (*Worker)(nil)
