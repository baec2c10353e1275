package memory

import (
	"context"
	"sync"
	"time"

	"hirely/internal/app/middleware"
)

// IdempotencyStore keeps command outcomes in memory for ttl. The first
// outcome saved under a key wins until it expires.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, now: time.Now, records: map[string]middleware.IdempotencyRecord{}}
}

// Reserve also drops expired records so the map does not grow without bound.
func (s *IdempotencyStore) Reserve(_ context.Context, key string, lease time.Duration) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, old := range s.records {
		if s.expired(old) {
			delete(s.records, k)
		}
	}
	now := s.now().UTC()
	if rec, held := s.records[key]; held && !abandoned(rec, lease, now) {
		return rec, false, nil
	}
	s.records[key] = middleware.IdempotencyRecord{Key: key, Pending: true, OccurredAt: now}
	return middleware.IdempotencyRecord{}, true, nil
}

// Complete overwrites a reservation. The first finished outcome under a key
// wins until it expires.
func (s *IdempotencyStore) Complete(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, live := s.records[rec.Key]; live && !old.Pending && !s.expired(old) {
		return nil
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = s.now().UTC()
	}
	rec.Pending = false
	s.records[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.Pending {
		delete(s.records, key)
	}
	return nil
}

func abandoned(rec middleware.IdempotencyRecord, lease time.Duration, now time.Time) bool {
	return rec.Pending && lease > 0 && now.Sub(rec.OccurredAt) > lease
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	return s.ttl > 0 && s.now().Sub(rec.OccurredAt) > s.ttl
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
