package mongo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"hirely/internal/app/middleware"
	domainbooking "hirely/internal/domain/booking"
	domainledger "hirely/internal/domain/ledger"
	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/money"
)

var created = time.Date(2025, 3, 1, 9, 30, 15, 250_000_000, time.UTC)

func TestLedgerDocumentMapping(t *testing.T) {
	settled := created.Add(48 * time.Hour)

	type testCase struct {
		name        string
		tx          *domainledger.Transaction
		wantSettled bool
		wantBooking bool
	}

	tests := []testCase{
		{
			name: "pending hold",
			tx: &domainledger.Transaction{
				ID:        "tx-1",
				UserID:    "hirer-1",
				BookingID: "booking-1",
				Amount:    money.Money{Amount: 23000, Currency: "USD"},
				Type:      domainledger.TypeEscrow,
				Status:    domainledger.StatusPending,
				CreatedAt: created,
			},
			wantBooking: true,
		},
		{
			name: "settled hold",
			tx: &domainledger.Transaction{
				ID:        "tx-2",
				UserID:    "hirer-1",
				BookingID: "booking-1",
				Amount:    money.Money{Amount: 23000, Currency: "USD"},
				Type:      domainledger.TypeEscrow,
				Status:    domainledger.StatusCompleted,
				CreatedAt: created,
				SettledAt: &settled,
			},
			wantSettled: true,
			wantBooking: true,
		},
		{
			name: "payout without booking",
			tx: &domainledger.Transaction{
				ID:        "tx-3",
				UserID:    "lister-1",
				Amount:    money.Money{Amount: 9000, Currency: "USD"},
				Type:      domainledger.TypePayout,
				Status:    domainledger.StatusPending,
				CreatedAt: created,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newLedgerDocument(tt.tx)
			assert.Equal(t, string(tt.tx.ID), doc.ID)

			raw, err := bson.Marshal(doc)
			require.NoError(t, err)
			var fields bson.M
			require.NoError(t, bson.Unmarshal(raw, &fields))
			assert.Equal(t, string(tt.tx.ID), fields["_id"])
			_, hasSettled := fields["settled_at"]
			assert.Equal(t, tt.wantSettled, hasSettled)
			_, hasBooking := fields["booking_id"]
			assert.Equal(t, tt.wantBooking, hasBooking)

			var decoded ledgerDocument
			require.NoError(t, bson.Unmarshal(raw, &decoded))
			assert.Equal(t, tt.tx, decoded.toTransaction())
		})
	}
}

func TestBookingDocumentMapping(t *testing.T) {
	usd := func(v int64) money.Money { return money.Money{Amount: v, Currency: "USD"} }
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		name       string
		booking    *domainbooking.Booking
		wantReason bool
	}

	base := func(status domainbooking.Status, reason string) *domainbooking.Booking {
		return &domainbooking.Booking{
			ID:        "booking-1",
			ProductID: domainproducts.ProductID("product-1"),
			HirerID:   "hirer-1",
			ListerID:  "lister-1",
			Range:     daterange.DateRange{Start: start, End: start.AddDate(0, 0, 3)},
			Price: pricing.Breakdown{
				Days:         3,
				Quantity:     1,
				DailyRate:    usd(2000),
				BaseRental:   usd(6000),
				PlatformFee:  usd(900),
				HirerTotal:   usd(6900),
				ListerPayout: usd(6000),
				Policy:       "tiered",
			},
			Status:       status,
			CancelReason: reason,
			CreatedAt:    created,
			UpdatedAt:    created.Add(time.Hour),
			Version:      4,
		}
	}

	tests := []testCase{
		{name: "paid", booking: base(domainbooking.StatusPaid, "")},
		{name: "cancelled with reason", booking: base(domainbooking.StatusCancelled, "plans changed"), wantReason: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(newBookingDocument(tt.booking))
			require.NoError(t, err)
			var fields bson.M
			require.NoError(t, bson.Unmarshal(raw, &fields))
			_, hasReason := fields["cancel_reason"]
			assert.Equal(t, tt.wantReason, hasReason)

			var decoded bookingDocument
			require.NoError(t, bson.Unmarshal(raw, &decoded))
			assert.Equal(t, toMillis(start), decoded.Range.Start)
			assert.Equal(t, tt.booking, decoded.toAggregate())
		})
	}
}

func TestIdempotencyDocumentMapping(t *testing.T) {
	type testCase struct {
		name string
		rec  middleware.IdempotencyRecord
	}

	tests := []testCase{
		{name: "stored result", rec: middleware.IdempotencyRecord{Key: "hirer-1:booking.create:k1", Payload: []byte(`{"id":"b1"}`), OccurredAt: created}},
		{name: "stored failure", rec: middleware.IdempotencyRecord{Key: "lister-1:wallet.payout:k2", Error: "ledger: insufficient balance", Kind: "INSUFFICIENT_BALANCE", OccurredAt: created}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newIdempotencyDocument(tt.rec)
			assert.Equal(t, tt.rec.Key, doc.ID)
			assert.False(t, doc.Pending)

			raw, err := bson.Marshal(doc)
			require.NoError(t, err)
			var decoded idempotencyDocument
			require.NoError(t, bson.Unmarshal(raw, &decoded))
			assert.Equal(t, tt.rec, decoded.record())
		})
	}

	doc := newIdempotencyDocument(middleware.IdempotencyRecord{Key: "k"})
	assert.False(t, doc.OccurredAt.IsZero())
}

func TestIsWriteConflict(t *testing.T) {
	type testCase struct {
		name string
		err  error
		want bool
	}

	tests := []testCase{
		{name: "write conflict code", err: mongo.CommandError{Code: writeConflictCode, Message: "WriteConflict"}, want: true},
		{name: "transient label", err: fmt.Errorf("commit: %w", mongo.CommandError{Labels: []string{"TransientTransactionError"}}), want: true},
		{name: "duplicate key", err: mongo.CommandError{Code: 11000}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isWriteConflict(tt.err))
		})
	}
}
