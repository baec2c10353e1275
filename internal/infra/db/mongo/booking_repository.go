package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "hirely/internal/domain/booking"
	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(colBookings)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save is a compare-and-swap on version. A missing match, a duplicate insert
// or a transaction write conflict all mean another writer got there first.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByProduct(ctx context.Context, productID domainproducts.ProductID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"product_id": string(productID)})
}

func (r *BookingRepository) ListByHirer(ctx context.Context, hirerID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"hirer_id": hirerID})
}

func (r *BookingRepository) ListByLister(ctx context.Context, listerID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"lister_id": listerID})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID           string            `bson:"_id"`
	ProductID    string            `bson:"product_id"`
	HirerID      string            `bson:"hirer_id"`
	ListerID     string            `bson:"lister_id"`
	Range        rangeDocument     `bson:"range"`
	Price        breakdownDocument `bson:"price"`
	Status       string            `bson:"status"`
	CancelReason string            `bson:"cancel_reason,omitempty"`
	CreatedAt    int64             `bson:"created_at"`
	UpdatedAt    int64             `bson:"updated_at"`
	Version      int64             `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type breakdownDocument struct {
	Days         int    `bson:"days"`
	Quantity     int    `bson:"quantity"`
	Currency     string `bson:"currency"`
	DailyRate    int64  `bson:"daily_rate"`
	BaseRental   int64  `bson:"base_rental"`
	PlatformFee  int64  `bson:"platform_fee"`
	HirerTotal   int64  `bson:"hirer_total"`
	ListerPayout int64  `bson:"lister_payout"`
	Policy       string `bson:"policy"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		ProductID: string(b.ProductID),
		HirerID:   b.HirerID,
		ListerID:  b.ListerID,
		Range:     rangeDocument{Start: toMillis(b.Range.Start), End: toMillis(b.Range.End)},
		Price: breakdownDocument{
			Days:         b.Price.Days,
			Quantity:     b.Price.Quantity,
			Currency:     b.Price.HirerTotal.Currency,
			DailyRate:    b.Price.DailyRate.Amount,
			BaseRental:   b.Price.BaseRental.Amount,
			PlatformFee:  b.Price.PlatformFee.Amount,
			HirerTotal:   b.Price.HirerTotal.Amount,
			ListerPayout: b.Price.ListerPayout.Amount,
			Policy:       b.Price.Policy,
		},
		Status:       string(b.Status),
		CancelReason: b.CancelReason,
		CreatedAt:    toMillis(b.CreatedAt),
		UpdatedAt:    toMillis(b.UpdatedAt),
		Version:      b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	cur := d.Price.Currency
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ProductID: domainproducts.ProductID(d.ProductID),
		HirerID:   d.HirerID,
		ListerID:  d.ListerID,
		Range:     daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Price: pricing.Breakdown{
			Days:         d.Price.Days,
			Quantity:     d.Price.Quantity,
			DailyRate:    money.Money{Amount: d.Price.DailyRate, Currency: cur},
			BaseRental:   money.Money{Amount: d.Price.BaseRental, Currency: cur},
			PlatformFee:  money.Money{Amount: d.Price.PlatformFee, Currency: cur},
			HirerTotal:   money.Money{Amount: d.Price.HirerTotal, Currency: cur},
			ListerPayout: money.Money{Amount: d.Price.ListerPayout, Currency: cur},
			Policy:       d.Price.Policy,
		},
		Status:       domainbooking.Status(d.Status),
		CancelReason: d.CancelReason,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}
