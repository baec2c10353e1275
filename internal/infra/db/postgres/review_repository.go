package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainbooking "hirely/internal/domain/booking"
	domainproducts "hirely/internal/domain/products"
	domainreviews "hirely/internal/domain/reviews"
)

const reviewColumns = `id, booking_id, product_id, reviewer_id, reviewee_id, rating, comment, created_at`

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE booking_id = $1`, string(bookingID))
	rv, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID domainproducts.ProductID, limit, offset int) ([]*domainreviews.Review, error) {
	rows, err := db(ctx, r.pool).Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		 WHERE product_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		string(productID), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []*domainreviews.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepository) Save(ctx context.Context, rv *domainreviews.Review) error {
	_, err := db(ctx, r.pool).Exec(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(rv.ID), string(rv.BookingID), string(rv.ProductID), rv.ReviewerID, rv.RevieweeID,
		rv.Rating, rv.Comment, rv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainreviews.ErrAlreadyReviewed
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func scanReview(row pgx.Row) (*domainreviews.Review, error) {
	var (
		rv                       domainreviews.Review
		id, bookingID, productID string
	)
	if err := row.Scan(&id, &bookingID, &productID, &rv.ReviewerID, &rv.RevieweeID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
		return nil, err
	}
	rv.ID = domainreviews.ReviewID(id)
	rv.BookingID = domainbooking.BookingID(bookingID)
	rv.ProductID = domainproducts.ProductID(productID)
	rv.CreatedAt = rv.CreatedAt.UTC()
	return &rv, nil
}
