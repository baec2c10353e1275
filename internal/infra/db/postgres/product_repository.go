package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/money"
)

const productColumns = `id, owner_id, title, description, currency, one_day, three_day, seven_day,
	quantity, status, version, created_at, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func (r *ProductRepository) ByID(ctx context.Context, id domainproducts.ProductID) (*domainproducts.Product, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, string(id))
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainproducts.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) Save(ctx context.Context, p *domainproducts.Product) error {
	q := db(ctx, r.pool)
	next := p.Version + 1
	threeDay := optionalAmount(p.Tiers.ThreeDay)
	sevenDay := optionalAmount(p.Tiers.SevenDay)
	if p.Version == 0 {
		tag, err := q.Exec(ctx,
			`INSERT INTO products (`+productColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 ON CONFLICT (id) DO NOTHING`,
			string(p.ID), p.OwnerID, p.Title, p.Description, p.Tiers.OneDay.Currency, p.Tiers.OneDay.Amount,
			threeDay, sevenDay, p.Quantity, string(p.Status), next, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domainproducts.ErrConcurrentUpdate
		}
		p.Version = next
		return nil
	}
	tag, err := q.Exec(ctx,
		`UPDATE products
		 SET title = $1, description = $2, currency = $3, one_day = $4, three_day = $5, seven_day = $6,
		     quantity = $7, status = $8, updated_at = $9, version = $10
		 WHERE id = $11 AND version = $12`,
		p.Title, p.Description, p.Tiers.OneDay.Currency, p.Tiers.OneDay.Amount, threeDay, sevenDay,
		p.Quantity, string(p.Status), p.UpdatedAt, next, string(p.ID), p.Version,
	)
	if err != nil {
		if isContention(err) {
			return domainproducts.ErrConcurrentUpdate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainproducts.ErrConcurrentUpdate
	}
	p.Version = next
	return nil
}

func (r *ProductRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domainproducts.Product, error) {
	rows, err := db(ctx, r.pool).Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*domainproducts.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*domainproducts.Product, error) {
	var (
		p                  domainproducts.Product
		id, currency, st   string
		oneDay             int64
		threeDay, sevenDay *int64
	)
	err := row.Scan(&id, &p.OwnerID, &p.Title, &p.Description, &currency, &oneDay, &threeDay, &sevenDay,
		&p.Quantity, &st, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = domainproducts.ProductID(id)
	p.Status = domainproducts.Status(st)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.Tiers = pricing.Tiers{OneDay: money.Money{Amount: oneDay, Currency: currency}}
	if threeDay != nil {
		p.Tiers.ThreeDay = &money.Money{Amount: *threeDay, Currency: currency}
	}
	if sevenDay != nil {
		p.Tiers.SevenDay = &money.Money{Amount: *sevenDay, Currency: currency}
	}
	return &p, nil
}

func optionalAmount(m *money.Money) *int64 {
	if m == nil {
		return nil
	}
	v := m.Amount
	return &v
}
