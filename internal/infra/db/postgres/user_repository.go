package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainusers "hirely/internal/domain/users"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func (r *UserRepository) ByID(ctx context.Context, id domainusers.ID) (*domainusers.User, error) {
	var (
		u      domainusers.User
		userID string
	)
	err := db(ctx, r.pool).QueryRow(ctx,
		`SELECT id, email, name, blocked_dates, identity_verified, created_at, updated_at
		 FROM users WHERE id = $1`,
		string(id),
	).Scan(&userID, &u.Email, &u.Name, &u.BlockedDates, &u.IdentityVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainusers.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.ID = domainusers.ID(userID)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (r *UserRepository) Save(ctx context.Context, u *domainusers.User) error {
	if u == nil || u.ID == "" {
		return domainusers.ErrIDRequired
	}
	blocked := u.BlockedDates
	if blocked == nil {
		blocked = []string{}
	}
	_, err := db(ctx, r.pool).Exec(ctx,
		`INSERT INTO users (id, email, name, blocked_dates, identity_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET email = EXCLUDED.email, name = EXCLUDED.name, blocked_dates = EXCLUDED.blocked_dates,
		     identity_verified = EXCLUDED.identity_verified, updated_at = EXCLUDED.updated_at`,
		string(u.ID), u.Email, u.Name, blocked, u.IdentityVerified, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainusers.ErrAlreadyExists
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}
