package memory

import (
	"context"
	"time"

	appoutbox "hirely/internal/app/outbox"
	infraoutbox "hirely/internal/infra/outbox"
)

// Claim hands the oldest due record to the relay.
func (s *Store) Claim(ctx context.Context, workerID string) (*infraoutbox.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range s.outbox {
		if rec.State != infraoutbox.StateNew && rec.State != infraoutbox.StateFailed {
			continue
		}
		if rec.NextAttempt.After(now) {
			continue
		}
		rec.State = infraoutbox.StateClaimed
		rec.ClaimedBy = workerID
		rec.ClaimedAt = now
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.outboxRecordLocked(id); rec != nil {
		rec.State = infraoutbox.StateSent
		rec.SentAt = time.Now().UTC()
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.outboxRecordLocked(id); rec != nil {
		rec.State = infraoutbox.StateFailed
		rec.NextAttempt = next
		rec.LastError = errMsg
		rec.Attempts++
	}
	return nil
}

// OutboxRecords returns the committed events in commit order.
func (s *Store) OutboxRecords() []appoutbox.EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]appoutbox.EventRecord, 0, len(s.outbox))
	for _, rec := range s.outbox {
		out = append(out, appoutbox.EventRecord{
			ID:         rec.ID,
			Name:       rec.Name,
			Payload:    rec.Payload,
			OccurredAt: rec.OccurredAt,
			Aggregate:  rec.Aggregate,
			Headers:    rec.Headers,
		})
	}
	return out
}

func (s *Store) outboxRecordLocked(id string) *infraoutbox.Record {
	for _, rec := range s.outbox {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

var _ infraoutbox.Store = (*Store)(nil)
