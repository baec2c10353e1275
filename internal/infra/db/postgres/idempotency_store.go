package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hirely/internal/app/middleware"
)

type IdempotencyStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewIdempotencyStore lets a key be reserved again once its row is older
// than ttl.
func NewIdempotencyStore(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &IdempotencyStore{pool: pool, ttl: ttl}
}

// Reserve inserts a pending row. The conflict branch only fires for an
// expired row or an abandoned reservation, so one affected row means the
// caller now holds the key.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, lease time.Duration) (middleware.IdempotencyRecord, bool, error) {
	now := time.Now().UTC()
	abandonedBefore := now
	if lease > 0 {
		abandonedBefore = now.Add(-lease)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO app_idempotency (key, pending, occurred_at, created_at)
		 VALUES ($1, true, $2, $2)
		 ON CONFLICT (key) DO UPDATE
		 SET pending = true, payload = NULL, error = '', kind = '',
		     occurred_at = EXCLUDED.occurred_at, created_at = EXCLUDED.created_at
		 WHERE app_idempotency.created_at <= $3
		    OR (app_idempotency.pending AND app_idempotency.occurred_at <= $4)`,
		key, now, now.Add(-s.ttl), abandonedBefore,
	)
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("reserve idempotency record: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return middleware.IdempotencyRecord{}, true, nil
	}

	rec := middleware.IdempotencyRecord{Key: key}
	err = s.pool.QueryRow(ctx,
		`SELECT payload, error, kind, pending, occurred_at FROM app_idempotency WHERE key = $1`,
		key,
	).Scan(&rec.Payload, &rec.Error, &rec.Kind, &rec.Pending, &rec.OccurredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Released between the insert and the read; the caller retries.
			return middleware.IdempotencyRecord{Key: key, Pending: true}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("get idempotency record: %w", err)
	}
	rec.OccurredAt = rec.OccurredAt.UTC()
	return rec, false, nil
}

// Complete fills the pending row. Without a reservation the outcome is
// inserted only when the key is new.
func (s *IdempotencyStore) Complete(ctx context.Context, rec middleware.IdempotencyRecord) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE app_idempotency
		 SET payload = $2, error = $3, kind = $4, occurred_at = $5, pending = false
		 WHERE key = $1 AND pending`,
		rec.Key, rec.Payload, rec.Error, rec.Kind, rec.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("complete idempotency record: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO app_idempotency (key, payload, error, kind, occurred_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (key) DO NOTHING`,
		rec.Key, rec.Payload, rec.Error, rec.Kind, rec.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("save idempotency record: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM app_idempotency WHERE key = $1 AND pending`, key); err != nil {
		return fmt.Errorf("release idempotency record: %w", err)
	}
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
