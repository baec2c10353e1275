package ledger

import "time"

type PayoutRequested struct {
	TransactionID TransactionID `json:"transaction_id"`
	UserID        string        `json:"user_id"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	At            time.Time     `json:"at"`
}

func (e PayoutRequested) EventName() string     { return "ledger.payout_requested" }
func (e PayoutRequested) AggregateID() string   { return e.UserID }
func (e PayoutRequested) OccurredAt() time.Time { return e.At }
