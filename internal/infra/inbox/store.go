package inbox

import (
	"context"
	"sync"
)

// Store deduplicates consumed events per consumer. Seen records eventID and
// reports whether it had already been recorded.
type Store interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[eventID]; ok {
		return true, nil
	}
	s.seen[eventID] = struct{}{}
	return false, nil
}

var _ Store = (*MemoryStore)(nil)
