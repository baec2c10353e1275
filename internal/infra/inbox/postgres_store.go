package inbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore records consumed events in app_inbox, created by the
// postgres schema migration.
type PostgresStore struct {
	pool     *pgxpool.Pool
	consumer string
}

func NewPostgresStore(pool *pgxpool.Pool, consumer string) *PostgresStore {
	return &PostgresStore{pool: pool, consumer: consumer}
}

func (s *PostgresStore) Seen(ctx context.Context, eventID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO app_inbox (event_id, consumer) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		eventID, s.consumer,
	)
	if err != nil {
		return false, fmt.Errorf("record inbox event: %w", err)
	}
	return tag.RowsAffected() == 0, nil
}

var _ Store = (*PostgresStore)(nil)
