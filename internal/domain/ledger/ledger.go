package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hirely/internal/domain/shared/fault"
	"hirely/internal/domain/shared/money"
)

var (
	ErrInvalidAmount       = fmt.Errorf("ledger: amount must be positive: %w", fault.ErrInvalidAmount)
	ErrInsufficientBalance = fmt.Errorf("ledger: amount exceeds available balance: %w", fault.ErrInsufficientBalance)
	ErrUserRequired        = fmt.Errorf("ledger: user is required: %w", fault.ErrValidation)
	ErrAlreadySettled      = fmt.Errorf("ledger: transaction already settled: %w", fault.ErrConflict)
	ErrAlreadyReleased     = fmt.Errorf("ledger: escrow already released for booking: %w", fault.ErrConflict)
	ErrNotFound            = fmt.Errorf("ledger: transaction not found: %w", fault.ErrNotFound)
	ErrAccountContended    = fmt.Errorf("ledger: account changed concurrently: %w", fault.ErrConcurrencyConflict)
)

type TransactionID string

type Type string

const (
	TypeEscrow        Type = "ESCROW"
	TypeEscrowRelease Type = "ESCROW_RELEASE"
	TypePayout        Type = "PAYOUT"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Transaction is an append-only ledger entry. Status may move from PENDING to
// COMPLETED once; nothing else changes after the entry is written.
type Transaction struct {
	ID        TransactionID
	UserID    string
	BookingID string
	Amount    money.Money
	Type      Type
	Status    Status
	CreatedAt time.Time
	SettledAt *time.Time
}

//go:generate mockgen -source=ledger.go -destination=repository_mock.go -package=ledger

type Repository interface {
	Append(ctx context.Context, tx *Transaction) error
	ListByUser(ctx context.Context, userID string) ([]*Transaction, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*Transaction, error)
	// SaveStatus persists a PENDING to COMPLETED flip.
	SaveStatus(ctx context.Context, tx *Transaction) error
	// LockAccount serializes writers on one user's ledger until the unit ends.
	LockAccount(ctx context.Context, userID string) error
}

// NewEscrowHold records the hirer's captured funds. It stays PENDING until the
// booking completes.
func NewEscrowHold(id TransactionID, hirerID, bookingID string, amount money.Money, now time.Time) (*Transaction, error) {
	return newEntry(id, hirerID, bookingID, amount, TypeEscrow, StatusPending, now)
}

// NewEscrowRelease credits the lister's payout on completion.
func NewEscrowRelease(id TransactionID, listerID, bookingID string, amount money.Money, now time.Time) (*Transaction, error) {
	tx, err := newEntry(id, listerID, bookingID, amount, TypeEscrowRelease, StatusCompleted, now)
	if err != nil {
		return nil, err
	}
	settled := tx.CreatedAt
	tx.SettledAt = &settled
	return tx, nil
}

func NewPayout(id TransactionID, userID string, amount money.Money, now time.Time) (*Transaction, error) {
	return newEntry(id, userID, "", amount, TypePayout, StatusPending, now)
}

func newEntry(id TransactionID, userID, bookingID string, amount money.Money, typ Type, status Status, now time.Time) (*Transaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserRequired
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Transaction{
		ID:        id,
		UserID:    userID,
		BookingID: strings.TrimSpace(bookingID),
		Amount:    amount,
		Type:      typ,
		Status:    status,
		CreatedAt: now.UTC(),
	}, nil
}

// Settle flips a PENDING entry to COMPLETED.
func (t *Transaction) Settle(now time.Time) error {
	if t.Status != StatusPending {
		return ErrAlreadySettled
	}
	at := now.UTC()
	t.Status = StatusCompleted
	t.SettledAt = &at
	return nil
}

type Balance struct {
	Available money.Money
	Escrow    money.Money
	Pending   money.Money
}

// Compute aggregates entries in one currency:
//
//	available = ESCROW_RELEASE/COMPLETED - PAYOUT/PENDING
//	escrow    = ESCROW/PENDING
//	pending   = PAYOUT/PENDING
func Compute(currency string, txs []*Transaction) Balance {
	var released, escrow, pending int64
	currency = strings.ToUpper(currency)
	for _, tx := range txs {
		if tx == nil || tx.Amount.Currency != currency {
			continue
		}
		switch {
		case tx.Type == TypeEscrowRelease && tx.Status == StatusCompleted:
			released += tx.Amount.Amount
		case tx.Type == TypeEscrow && tx.Status == StatusPending:
			escrow += tx.Amount.Amount
		case tx.Type == TypePayout && tx.Status == StatusPending:
			pending += tx.Amount.Amount
		}
	}
	return Balance{
		Available: money.Money{Amount: released - pending, Currency: currency},
		Escrow:    money.Money{Amount: escrow, Currency: currency},
		Pending:   money.Money{Amount: pending, Currency: currency},
	}
}

// CanWithdraw checks a payout request against the available balance.
func (b Balance) CanWithdraw(amount money.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	more, err := amount.GreaterThan(b.Available)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if more {
		return ErrInsufficientBalance
	}
	return nil
}

// FindHold returns the PENDING escrow entry for a booking, if any.
func FindHold(txs []*Transaction) (*Transaction, bool) {
	for _, tx := range txs {
		if tx != nil && tx.Type == TypeEscrow && tx.Status == StatusPending {
			return tx, true
		}
	}
	return nil, false
}
