package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	domainmessaging "hirely/internal/domain/messaging"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func (r *MessageRepository) Append(ctx context.Context, msg *domainmessaging.Message) error {
	_, err := db(ctx, r.pool).Exec(ctx,
		`INSERT INTO booking_messages (id, booking_id, sender_id, body, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		string(msg.ID), msg.BookingID, msg.SenderID, msg.Text, string(msg.Type), msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domainmessaging.Message, error) {
	rows, err := db(ctx, r.pool).Query(ctx,
		`SELECT id, booking_id, sender_id, body, type, created_at
		 FROM booking_messages
		 WHERE booking_id = $1
		 ORDER BY created_at ASC, id ASC`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*domainmessaging.Message
	for rows.Next() {
		var (
			m       domainmessaging.Message
			id, typ string
		)
		if err := rows.Scan(&id, &m.BookingID, &m.SenderID, &m.Text, &typ, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = domainmessaging.MessageID(id)
		m.Type = domainmessaging.Type(typ)
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, &m)
	}
	return out, rows.Err()
}
