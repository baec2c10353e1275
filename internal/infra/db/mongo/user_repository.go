package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainusers "hirely/internal/domain/users"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(colUsers)}
}

func (r *UserRepository) ByID(ctx context.Context, id domainusers.ID) (*domainusers.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainusers.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts by id. The unique email index rejects a second account for
// the same address.
func (r *UserRepository) Save(ctx context.Context, user *domainusers.User) error {
	if user == nil || user.ID == "" {
		return domainusers.ErrIDRequired
	}
	doc := userDocument{
		ID:               string(user.ID),
		Email:            user.Email,
		Name:             user.Name,
		BlockedDates:     append([]string{}, user.BlockedDates...),
		IdentityVerified: user.IdentityVerified,
		CreatedAt:        toMillis(user.CreatedAt),
		UpdatedAt:        toMillis(user.UpdatedAt),
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return domainusers.ErrAlreadyExists
	}
	return err
}

type userDocument struct {
	ID               string   `bson:"_id"`
	Email            string   `bson:"email"`
	Name             string   `bson:"name"`
	BlockedDates     []string `bson:"blocked_dates"`
	IdentityVerified bool     `bson:"identity_verified"`
	CreatedAt        int64    `bson:"created_at"`
	UpdatedAt        int64    `bson:"updated_at"`
}

func (d userDocument) toAggregate() *domainusers.User {
	return &domainusers.User{
		ID:               domainusers.ID(d.ID),
		Email:            d.Email,
		Name:             d.Name,
		BlockedDates:     d.BlockedDates,
		IdentityVerified: d.IdentityVerified,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
	}
}
