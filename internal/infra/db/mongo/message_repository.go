package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainmessaging "hirely/internal/domain/messaging"
)

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(colMessages)}
}

func (r *MessageRepository) Append(ctx context.Context, msg *domainmessaging.Message) error {
	doc := messageDocument{
		ID:        string(msg.ID),
		BookingID: msg.BookingID,
		SenderID:  msg.SenderID,
		Text:      msg.Text,
		Type:      string(msg.Type),
		CreatedAt: msg.CreatedAt.UnixNano(),
	}
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *MessageRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domainmessaging.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []messageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainmessaging.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toMessage())
	}
	return out, nil
}

// messageDocument keeps nanosecond timestamps so thread order survives
// messages written within the same millisecond.
type messageDocument struct {
	ID        string `bson:"_id"`
	BookingID string `bson:"booking_id"`
	SenderID  string `bson:"sender_id"`
	Text      string `bson:"text"`
	Type      string `bson:"type"`
	CreatedAt int64  `bson:"created_at"`
}

func (d messageDocument) toMessage() *domainmessaging.Message {
	return &domainmessaging.Message{
		ID:        domainmessaging.MessageID(d.ID),
		BookingID: d.BookingID,
		SenderID:  d.SenderID,
		Text:      d.Text,
		Type:      domainmessaging.Type(d.Type),
		CreatedAt: unixNano(d.CreatedAt),
	}
}
