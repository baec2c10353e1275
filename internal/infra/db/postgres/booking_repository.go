package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainbooking "hirely/internal/domain/booking"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/money"
)

const bookingColumns = `id, product_id, hirer_id, lister_id, start_at, end_at, days, quantity, currency,
	daily_rate, base_rental, platform_fee, hirer_total, lister_payout, fee_policy,
	status, cancel_reason, version, created_at, updated_at`

type BookingRepository struct {
	pool *pgxpool.Pool
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// Save inserts version 1 or updates WHERE version matches the one read.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	q := db(ctx, r.pool)
	next := b.Version + 1
	cur := b.Price.HirerTotal.Currency
	if b.Version == 0 {
		tag, err := q.Exec(ctx,
			`INSERT INTO bookings (`+bookingColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			 ON CONFLICT (id) DO NOTHING`,
			string(b.ID), string(b.ProductID), b.HirerID, b.ListerID, b.Range.Start, b.Range.End,
			b.Price.Days, b.Price.Quantity, cur, b.Price.DailyRate.Amount, b.Price.BaseRental.Amount,
			b.Price.PlatformFee.Amount, b.Price.HirerTotal.Amount, b.Price.ListerPayout.Amount, b.Price.Policy,
			string(b.Status), b.CancelReason, next, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domainbooking.ErrConcurrentUpdate
		}
		b.Version = next
		return nil
	}
	tag, err := q.Exec(ctx,
		`UPDATE bookings
		 SET status = $1, cancel_reason = $2, updated_at = $3, version = $4
		 WHERE id = $5 AND version = $6`,
		string(b.Status), b.CancelReason, b.UpdatedAt, next, string(b.ID), b.Version,
	)
	if err != nil {
		if isContention(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = next
	return nil
}

func (r *BookingRepository) ListByProduct(ctx context.Context, productID domainproducts.ProductID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, `product_id = $1`, string(productID))
}

func (r *BookingRepository) ListByHirer(ctx context.Context, hirerID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, `hirer_id = $1`, hirerID)
}

func (r *BookingRepository) ListByLister(ctx context.Context, listerID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, `lister_id = $1`, listerID)
}

func (r *BookingRepository) list(ctx context.Context, where string, arg any) ([]*domainbooking.Booking, error) {
	rows, err := db(ctx, r.pool).Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+where+` ORDER BY created_at DESC, id DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []*domainbooking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*domainbooking.Booking, error) {
	var (
		b                               domainbooking.Booking
		id, productID, currency, status string
		daily, base, fee, total, payout int64
	)
	err := row.Scan(&id, &productID, &b.HirerID, &b.ListerID, &b.Range.Start, &b.Range.End,
		&b.Price.Days, &b.Price.Quantity, &currency, &daily, &base, &fee, &total, &payout, &b.Price.Policy,
		&status, &b.CancelReason, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.ID = domainbooking.BookingID(id)
	b.ProductID = domainproducts.ProductID(productID)
	b.Status = domainbooking.Status(status)
	b.Range.Start = b.Range.Start.UTC()
	b.Range.End = b.Range.End.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	b.Price.DailyRate = money.Money{Amount: daily, Currency: currency}
	b.Price.BaseRental = money.Money{Amount: base, Currency: currency}
	b.Price.PlatformFee = money.Money{Amount: fee, Currency: currency}
	b.Price.HirerTotal = money.Money{Amount: total, Currency: currency}
	b.Price.ListerPayout = money.Money{Amount: payout, Currency: currency}
	return &b, nil
}
