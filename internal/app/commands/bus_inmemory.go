package commands

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type route func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus keeps one route per command key. It is safe for concurrent
// dispatch once wiring is done.
type InMemoryBus struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: map[string]route{}}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrHandlerNotFound)
	}
	b.mu.RLock()
	r, ok := b.routes[cmd.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrHandlerNotFound, cmd.Key())
	}
	return r(ctx, cmd)
}

// Keys returns the registered command keys, sorted.
func (b *InMemoryBus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (b *InMemoryBus) add(key string, r route) {
	if key == "" {
		panic("commands: command type reports an empty key")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.routes[key]; taken {
		panic(fmt.Sprintf("commands: %q registered twice", key))
	}
	b.routes[key] = r
}

// RegisterHandler routes every C to handler. The key comes from the zero C,
// so Key must not depend on field values. Double registration panics.
func RegisterHandler[C Command, R any](bus *InMemoryBus, handler Handler[C, R]) {
	if bus == nil {
		panic(ErrNilBus)
	}
	var zero C
	key := zero.Key()
	bus.add(key, func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %q got %T", ErrInvalidCommand, key, raw)
		}
		return handler.Handle(ctx, cmd)
	})
}
