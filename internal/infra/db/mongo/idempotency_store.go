package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hirely/internal/app/middleware"
)

// IdempotencyStore keys documents by the scoped idempotency key. A TTL index
// on created_at lets mongo expire them.
type IdempotencyStore struct {
	col *mongo.Collection
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	col := db.Collection(colIdempotency)
	expiry := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl / time.Second)),
	}
	if _, err := col.Indexes().CreateOne(ctx, expiry); err != nil {
		return nil, fmt.Errorf("idempotency ttl index: %w", err)
	}
	return &IdempotencyStore{col: col}, nil
}

// Reserve inserts a pending document on _id, so only one caller can hold a
// key. An abandoned reservation is taken over by bumping its timestamps.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, lease time.Duration) (middleware.IdempotencyRecord, bool, error) {
	now := time.Now().UTC()
	_, err := s.col.InsertOne(ctx, idempotencyDocument{ID: key, Key: key, Pending: true, OccurredAt: now, CreatedAt: now})
	if err == nil {
		return middleware.IdempotencyRecord{}, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("reserve idempotency %s: %w", key, err)
	}
	if lease > 0 {
		res, err := s.col.UpdateOne(ctx,
			bson.M{"_id": key, "pending": true, "occurred_at": bson.M{"$lt": now.Add(-lease)}},
			bson.M{"$set": bson.M{"occurred_at": now, "created_at": now}},
		)
		if err != nil {
			return middleware.IdempotencyRecord{}, false, fmt.Errorf("take over idempotency %s: %w", key, err)
		}
		if res.ModifiedCount == 1 {
			return middleware.IdempotencyRecord{}, true, nil
		}
	}
	var doc idempotencyDocument
	err = s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// Released or expired between the insert and the read; the caller retries.
		return middleware.IdempotencyRecord{Key: key, Pending: true}, false, nil
	case err != nil:
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("find idempotency %s: %w", key, err)
	}
	return doc.record(), false, nil
}

// Complete fills the pending document. Without a reservation the outcome is
// inserted only when the key is new.
func (s *IdempotencyStore) Complete(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := newIdempotencyDocument(rec)
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": rec.Key, "pending": true},
		bson.M{"$set": bson.M{
			"payload":     doc.Payload,
			"error":       doc.Error,
			"kind":        doc.Kind,
			"pending":     false,
			"occurred_at": doc.OccurredAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("complete idempotency %s: %w", rec.Key, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("save idempotency %s: %w", rec.Key, err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": key, "pending": true}); err != nil {
		return fmt.Errorf("release idempotency %s: %w", key, err)
	}
	return nil
}

type idempotencyDocument struct {
	ID         string    `bson:"_id"`
	Key        string    `bson:"key"`
	Payload    []byte    `bson:"payload,omitempty"`
	Error      string    `bson:"error,omitempty"`
	Kind       string    `bson:"kind,omitempty"`
	Pending    bool      `bson:"pending"`
	OccurredAt time.Time `bson:"occurred_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

func newIdempotencyDocument(rec middleware.IdempotencyRecord) idempotencyDocument {
	occurred := rec.OccurredAt.UTC()
	if rec.OccurredAt.IsZero() {
		occurred = time.Now().UTC()
	}
	return idempotencyDocument{
		ID:         rec.Key,
		Key:        rec.Key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		Kind:       rec.Kind,
		OccurredAt: occurred,
		CreatedAt:  time.Now().UTC(),
	}
}

func (d idempotencyDocument) record() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:        d.ID,
		Payload:    d.Payload,
		Error:      d.Error,
		Kind:       d.Kind,
		Pending:    d.Pending,
		OccurredAt: d.OccurredAt.UTC(),
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
