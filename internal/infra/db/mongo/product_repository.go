package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/money"
)

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(colProducts)}
}

func (r *ProductRepository) ByID(ctx context.Context, id domainproducts.ProductID) (*domainproducts.Product, error) {
	var doc productDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproducts.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ProductRepository) Save(ctx context.Context, p *domainproducts.Product) error {
	doc := newProductDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return domainproducts.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainproducts.ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

func (r *ProductRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domainproducts.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainproducts.Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type productDocument struct {
	ID          string `bson:"_id"`
	OwnerID     string `bson:"owner_id"`
	Title       string `bson:"title"`
	Description string `bson:"description"`
	Currency    string `bson:"currency"`
	OneDay      int64  `bson:"one_day"`
	ThreeDay    *int64 `bson:"three_day,omitempty"`
	SevenDay    *int64 `bson:"seven_day,omitempty"`
	Quantity    int    `bson:"quantity"`
	Status      string `bson:"status"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
	Version     int64  `bson:"version"`
}

func newProductDocument(p *domainproducts.Product) productDocument {
	doc := productDocument{
		ID:          string(p.ID),
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Currency:    p.Tiers.OneDay.Currency,
		OneDay:      p.Tiers.OneDay.Amount,
		Quantity:    p.Quantity,
		Status:      string(p.Status),
		CreatedAt:   toMillis(p.CreatedAt),
		UpdatedAt:   toMillis(p.UpdatedAt),
		Version:     p.Version,
	}
	if p.Tiers.ThreeDay != nil {
		v := p.Tiers.ThreeDay.Amount
		doc.ThreeDay = &v
	}
	if p.Tiers.SevenDay != nil {
		v := p.Tiers.SevenDay.Amount
		doc.SevenDay = &v
	}
	return doc
}

func (d productDocument) toAggregate() *domainproducts.Product {
	tiers := pricing.Tiers{OneDay: money.Money{Amount: d.OneDay, Currency: d.Currency}}
	if d.ThreeDay != nil {
		tiers.ThreeDay = &money.Money{Amount: *d.ThreeDay, Currency: d.Currency}
	}
	if d.SevenDay != nil {
		tiers.SevenDay = &money.Money{Amount: *d.SevenDay, Currency: d.Currency}
	}
	return &domainproducts.Product{
		ID:          domainproducts.ProductID(d.ID),
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		Tiers:       tiers,
		Quantity:    d.Quantity,
		Status:      domainproducts.Status(d.Status),
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}
