package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appoutbox "hirely/internal/app/outbox"
	infraoutbox "hirely/internal/infra/outbox"
)

// OutboxStore writes records inside the caller's transaction and serves the
// relay with SKIP LOCKED claims so several workers can share the table.
type OutboxStore struct {
	pool       *pgxpool.Pool
	claimAfter time.Duration
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{pool: pool, claimAfter: 30 * time.Second}
}

func (s *OutboxStore) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	headers, err := json.Marshal(nonNilHeaders(rec.Headers))
	if err != nil {
		return fmt.Errorf("encode outbox headers: %w", err)
	}
	_, err = db(ctx, s.pool).Exec(ctx,
		`INSERT INTO app_outbox (id, name, payload, occurred_at, aggregate, headers, state, next_attempt_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Name, rec.Payload, rec.OccurredAt, rec.Aggregate, headers, infraoutbox.StateNew, rec.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox record: %w", err)
	}
	return nil
}

// Claim takes the oldest due record. Claimed records whose worker stalled
// become claimable again after claimAfter.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Record, error) {
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx,
		`UPDATE app_outbox SET state = $1, claimed_by = $2, claimed_at = $3
		 WHERE id = (
		     SELECT id FROM app_outbox
		     WHERE (state IN ($4, $5) AND next_attempt_at <= $3)
		        OR (state = $1 AND claimed_at < $6)
		     ORDER BY occurred_at, id
		     LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, name, payload, occurred_at, aggregate, headers, state, attempts, next_attempt_at, claimed_by, claimed_at`,
		infraoutbox.StateClaimed, workerID, now, infraoutbox.StateNew, infraoutbox.StateFailed, now.Add(-s.claimAfter),
	)
	var (
		rec     infraoutbox.Record
		headers []byte
	)
	err := row.Scan(&rec.ID, &rec.Name, &rec.Payload, &rec.OccurredAt, &rec.Aggregate, &headers,
		&rec.State, &rec.Attempts, &rec.NextAttempt, &rec.ClaimedBy, &rec.ClaimedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim outbox record: %w", err)
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &rec.Headers); err != nil {
			return nil, fmt.Errorf("decode outbox headers: %w", err)
		}
	}
	rec.OccurredAt = rec.OccurredAt.UTC()
	return &rec, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE app_outbox SET state = $1, sent_at = $2, last_error = '' WHERE id = $3`,
		infraoutbox.StateSent, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE app_outbox
		 SET state = $1, attempts = attempts + 1, next_attempt_at = $2, last_error = $3, claimed_by = ''
		 WHERE id = $4`,
		infraoutbox.StateFailed, next.UTC(), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}

func nonNilHeaders(h map[string]string) map[string]string {
	if h == nil {
		return map[string]string{}
	}
	return h
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Store = (*OutboxStore)(nil)
)
