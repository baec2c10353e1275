package queries

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type answer func(ctx context.Context, q Query) (any, error)

type InMemoryBus struct {
	mu      sync.RWMutex
	answers map[string]answer
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{answers: map[string]answer{}}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	if query == nil {
		return nil, fmt.Errorf("%w: nil query", ErrHandlerNotFound)
	}
	b.mu.RLock()
	a, ok := b.answers[query.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrHandlerNotFound, query.Key())
	}
	return a(ctx, query)
}

// Keys returns the registered query keys, sorted.
func (b *InMemoryBus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.answers))
	for k := range b.answers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RegisterHandler answers every Q with handler.
func RegisterHandler[Q Query, R any](bus *InMemoryBus, handler Handler[Q, R]) {
	if bus == nil {
		panic(ErrNilBus)
	}
	var zero Q
	key := zero.Key()
	if key == "" {
		panic("queries: query type reports an empty key")
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, taken := bus.answers[key]; taken {
		panic(fmt.Sprintf("queries: %q registered twice", key))
	}
	bus.answers[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %q got %T", ErrInvalidQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	}
}
