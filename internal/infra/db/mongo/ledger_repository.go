package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainledger "hirely/internal/domain/ledger"
	"hirely/internal/domain/shared/money"
)

type LedgerRepository struct {
	col      *mongo.Collection
	accounts *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{col: db.Collection(colLedger), accounts: db.Collection(colLedgerAccounts)}
}

func (r *LedgerRepository) Append(ctx context.Context, tx *domainledger.Transaction) error {
	_, err := r.col.InsertOne(ctx, newLedgerDocument(tx))
	return err
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID string) ([]*domainledger.Transaction, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *LedgerRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domainledger.Transaction, error) {
	return r.find(ctx, bson.M{"booking_id": bookingID})
}

func (r *LedgerRepository) find(ctx context.Context, filter bson.M) ([]*domainledger.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []ledgerDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainledger.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toTransaction())
	}
	return out, nil
}

// SaveStatus only moves a PENDING entry; entries are otherwise immutable.
func (r *LedgerRepository) SaveStatus(ctx context.Context, tx *domainledger.Transaction) error {
	set := bson.M{"status": string(tx.Status)}
	if tx.SettledAt != nil {
		set["settled_at"] = toMillis(*tx.SettledAt)
	}
	filter := bson.M{"_id": string(tx.ID), "status": string(domainledger.StatusPending)}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		if isWriteConflict(err) {
			return domainledger.ErrAccountContended
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domainledger.ErrAlreadySettled
	}
	return nil
}

// LockAccount bumps the account's sequence document inside the session. A
// second transaction touching the same account hits a write conflict.
func (r *LedgerRepository) LockAccount(ctx context.Context, userID string) error {
	update := bson.M{
		"$inc": bson.M{"seq": 1},
		"$set": bson.M{"locked_at": time.Now().UTC()},
	}
	_, err := r.accounts.UpdateByID(ctx, userID, update, options.Update().SetUpsert(true))
	if err != nil {
		if isWriteConflict(err) || mongo.IsDuplicateKeyError(err) {
			return domainledger.ErrAccountContended
		}
		return err
	}
	return nil
}

type ledgerDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	BookingID string `bson:"booking_id,omitempty"`
	Amount    int64  `bson:"amount"`
	Currency  string `bson:"currency"`
	Type      string `bson:"type"`
	Status    string `bson:"status"`
	CreatedAt int64  `bson:"created_at"`
	SettledAt *int64 `bson:"settled_at,omitempty"`
}

func newLedgerDocument(tx *domainledger.Transaction) ledgerDocument {
	doc := ledgerDocument{
		ID:        string(tx.ID),
		UserID:    tx.UserID,
		BookingID: tx.BookingID,
		Amount:    tx.Amount.Amount,
		Currency:  tx.Amount.Currency,
		Type:      string(tx.Type),
		Status:    string(tx.Status),
		CreatedAt: toMillis(tx.CreatedAt),
	}
	if tx.SettledAt != nil {
		at := toMillis(*tx.SettledAt)
		doc.SettledAt = &at
	}
	return doc
}

func (d ledgerDocument) toTransaction() *domainledger.Transaction {
	tx := &domainledger.Transaction{
		ID:        domainledger.TransactionID(d.ID),
		UserID:    d.UserID,
		BookingID: d.BookingID,
		Amount:    money.Money{Amount: d.Amount, Currency: d.Currency},
		Type:      domainledger.Type(d.Type),
		Status:    domainledger.Status(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
	}
	if d.SettledAt != nil {
		at := timestampToTime(*d.SettledAt)
		tx.SettledAt = &at
	}
	return tx
}
