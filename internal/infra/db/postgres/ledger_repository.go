package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	domainledger "hirely/internal/domain/ledger"
	"hirely/internal/domain/shared/money"
)

const ledgerColumns = `id, user_id, booking_id, amount, currency, type, status, created_at, settled_at`

type LedgerRepository struct {
	pool *pgxpool.Pool
}

func (r *LedgerRepository) Append(ctx context.Context, tx *domainledger.Transaction) error {
	_, err := db(ctx, r.pool).Exec(ctx,
		`INSERT INTO ledger_transactions (`+ledgerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(tx.ID), tx.UserID, tx.BookingID, tx.Amount.Amount, tx.Amount.Currency,
		string(tx.Type), string(tx.Status), tx.CreatedAt, tx.SettledAt,
	)
	if err != nil {
		if isUniqueViolation(err) && tx.Type == domainledger.TypeEscrowRelease {
			return domainledger.ErrAlreadyReleased
		}
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID string) ([]*domainledger.Transaction, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *LedgerRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domainledger.Transaction, error) {
	return r.list(ctx, `WHERE booking_id = $1`, bookingID)
}

func (r *LedgerRepository) list(ctx context.Context, where string, arg string) ([]*domainledger.Transaction, error) {
	rows, err := db(ctx, r.pool).Query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_transactions `+where+` ORDER BY created_at ASC, id ASC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list ledger transactions: %w", err)
	}
	defer rows.Close()

	var out []*domainledger.Transaction
	for rows.Next() {
		var (
			tx                    domainledger.Transaction
			id, currency, typ, st string
			amount                int64
			settledAt             *time.Time
		)
		if err := rows.Scan(&id, &tx.UserID, &tx.BookingID, &amount, &currency, &typ, &st, &tx.CreatedAt, &settledAt); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		tx.ID = domainledger.TransactionID(id)
		tx.Amount = money.Money{Amount: amount, Currency: currency}
		tx.Type = domainledger.Type(typ)
		tx.Status = domainledger.Status(st)
		tx.CreatedAt = tx.CreatedAt.UTC()
		if settledAt != nil {
			at := settledAt.UTC()
			tx.SettledAt = &at
		}
		out = append(out, &tx)
	}
	return out, rows.Err()
}

// SaveStatus only moves a PENDING entry; entries are otherwise immutable.
func (r *LedgerRepository) SaveStatus(ctx context.Context, tx *domainledger.Transaction) error {
	tag, err := db(ctx, r.pool).Exec(ctx,
		`UPDATE ledger_transactions SET status = $1, settled_at = $2
		 WHERE id = $3 AND status = $4`,
		string(tx.Status), tx.SettledAt, string(tx.ID), string(domainledger.StatusPending),
	)
	if err != nil {
		if isContention(err) {
			return domainledger.ErrAccountContended
		}
		return fmt.Errorf("update ledger status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainledger.ErrAlreadySettled
	}
	return nil
}

// LockAccount takes a transaction-scoped advisory lock keyed by the user id.
// It is released on commit or rollback.
func (r *LedgerRepository) LockAccount(ctx context.Context, userID string) error {
	if _, err := db(ctx, r.pool).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "ledger:"+userID); err != nil {
		if isContention(err) {
			return domainledger.ErrAccountContended
		}
		return fmt.Errorf("lock ledger account: %w", err)
	}
	return nil
}
