package dto

import (
	"time"

	domainledger "hirely/internal/domain/ledger"
)

type Balance struct {
	UserID    string   `json:"user_id"`
	Available MoneyDTO `json:"available"`
	Escrow    MoneyDTO `json:"escrow"`
	Pending   MoneyDTO `json:"pending"`
}

func MapBalance(userID string, b domainledger.Balance) Balance {
	return Balance{
		UserID:    userID,
		Available: MapMoney(b.Available),
		Escrow:    MapMoney(b.Escrow),
		Pending:   MapMoney(b.Pending),
	}
}

type Transaction struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	BookingID string     `json:"booking_id,omitempty"`
	Amount    MoneyDTO   `json:"amount"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

type TransactionCollection struct {
	Items []Transaction `json:"items"`
}

func MapTransaction(tx *domainledger.Transaction) Transaction {
	return Transaction{
		ID:        string(tx.ID),
		UserID:    tx.UserID,
		BookingID: tx.BookingID,
		Amount:    MapMoney(tx.Amount),
		Type:      string(tx.Type),
		Status:    string(tx.Status),
		CreatedAt: tx.CreatedAt,
		SettledAt: tx.SettledAt,
	}
}
