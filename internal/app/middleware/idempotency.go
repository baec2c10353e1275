package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hirely/internal/app/commands"
	"hirely/internal/domain/shared/fault"
)

// IdempotentCommand is implemented by commands a client may safely resend,
// such as booking creation and payout requests.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a fresh pointer of the handler's result type.
	ResultPrototype() any
}

// IdempotencyRecord keeps the outcome of a keyed command. Pending marks a
// reservation whose command is still running. Kind holds the fault code of a
// failed outcome so replays keep their error kind.
type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	Kind       string
	Pending    bool
	OccurredAt time.Time
}

// IdempotencyStore reserves a key before its command runs so that only one
// request per key reaches the handler.
type IdempotencyStore interface {
	// Reserve claims key with a pending record. When the key is already held
	// it returns the existing record and false. A pending record older than
	// lease is treated as abandoned and may be claimed again.
	Reserve(ctx context.Context, key string, lease time.Duration) (IdempotencyRecord, bool, error)
	// Complete replaces the reservation with the outcome. An existing
	// finished record is kept.
	Complete(ctx context.Context, rec IdempotencyRecord) error
	// Release drops a pending reservation whose outcome is not kept.
	Release(ctx context.Context, key string) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var ErrMissingPrototype = errors.New("middleware: idempotent command has no result prototype")

var ErrIdempotencyInFlight = fmt.Errorf("middleware: a request with this idempotency key is still running: %w", fault.ErrConflict)

const (
	reservationLease = time.Minute
	inFlightWait     = 5 * time.Second
	inFlightPoll     = 20 * time.Millisecond
)

// Idempotency answers a repeated key with the first outcome instead of
// running the handler again. Keys are scoped by command and actor and are
// reserved before dispatch, so a concurrent duplicate waits for the running
// request and replays its outcome, or fails with ErrIdempotencyInFlight.
// Concurrency conflicts and failures without a fault kind release the key,
// so a retry with the same key runs again.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			keyed, ok := cmd.(IdempotentCommand)
			if !ok || strings.TrimSpace(keyed.IdempotencyKey()) == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := scopedKey(keyed)
			rec, reserved, err := acquire(ctx, store, key)
			if err != nil {
				return nil, err
			}
			if !reserved {
				return replay(codec, keyed, rec)
			}
			return run(ctx, store, codec, next, keyed, key)
		})
	}
}

// acquire reserves key, or waits until the request holding it finishes and
// returns that request's record.
func acquire(ctx context.Context, store IdempotencyStore, key string) (IdempotencyRecord, bool, error) {
	deadline := time.Now().Add(inFlightWait)
	for {
		rec, reserved, err := store.Reserve(ctx, key, reservationLease)
		if err != nil {
			return IdempotencyRecord{}, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if reserved || !rec.Pending {
			return rec, reserved, nil
		}
		if time.Now().After(deadline) {
			return IdempotencyRecord{}, false, ErrIdempotencyInFlight
		}
		timer := time.NewTimer(inFlightPoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return IdempotencyRecord{}, false, ctx.Err()
		case <-timer.C:
		}
	}
}

func run(ctx context.Context, store IdempotencyStore, codec ResultCodec, next commands.Bus, cmd IdempotentCommand, key string) (res any, err error) {
	settled := false
	defer func() {
		if !settled {
			_ = store.Release(context.WithoutCancel(ctx), key)
		}
	}()

	res, err = next.Dispatch(ctx, cmd)
	rec := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
	if err != nil {
		if !storable(err) {
			return nil, err
		}
		rec.Error, rec.Kind = err.Error(), fault.Kind(err)
		if saveErr := store.Complete(ctx, rec); saveErr != nil {
			return nil, errors.Join(err, saveErr)
		}
		settled = true
		return nil, err
	}
	if res != nil {
		if rec.Payload, err = codec.Encode(res); err != nil {
			return nil, fmt.Errorf("idempotency encode: %w", err)
		}
	}
	if err := store.Complete(ctx, rec); err != nil {
		return nil, err
	}
	settled = true
	return res, nil
}

func scopedKey(cmd IdempotentCommand) string {
	parts := []string{cmd.Key()}
	if actor, ok := cmd.(interface{ Actor() string }); ok {
		parts = append(parts, actor.Actor())
	}
	return strings.Join(append(parts, strings.TrimSpace(cmd.IdempotencyKey())), ":")
}

func storable(err error) bool {
	return fault.Kind(err) != "" && !errors.Is(err, fault.ErrConcurrencyConflict)
}

func replay(codec ResultCodec, cmd IdempotentCommand, rec IdempotencyRecord) (any, error) {
	if rec.Error != "" {
		return nil, fault.Restore(rec.Kind, rec.Error)
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	out := cmd.ResultPrototype()
	if out == nil {
		return nil, ErrMissingPrototype
	}
	if err := codec.Decode(rec.Payload, out); err != nil {
		return nil, fmt.Errorf("idempotency decode %s: %w", rec.Key, err)
	}
	return out, nil
}
