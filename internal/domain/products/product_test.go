package products_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/domain/pricing"
	"hirely/internal/domain/products"
	"hirely/internal/domain/shared/fault"
	"hirely/internal/domain/shared/money"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newProduct(t *testing.T) *products.Product {
	t.Helper()
	p, err := products.NewProduct(products.CreateParams{
		ID:      "p1",
		OwnerID: "owner",
		Title:   " Cordless drill ",
		Tiers:   pricing.Tiers{OneDay: money.Must(2000, "USD")},
		Now:     now,
	})
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	p := newProduct(t)
	assert.Equal(t, "Cordless drill", p.Title)
	assert.Equal(t, 1, p.Quantity)
	assert.True(t, p.Available())

	_, err := products.NewProduct(products.CreateParams{ID: "p2", OwnerID: "owner", Title: "Tent", Now: now})
	assert.ErrorIs(t, err, fault.ErrValidation)

	_, err = products.NewProduct(products.CreateParams{ID: "p3", OwnerID: "owner", Title: "Tent", Quantity: -1, Tiers: pricing.Tiers{OneDay: money.Must(1, "USD")}})
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestOwnerOnlyMutations(t *testing.T) {
	p := newProduct(t)
	tiers := pricing.Tiers{OneDay: money.Must(2500, "USD")}

	assert.ErrorIs(t, p.UpdatePricing("intruder", tiers, now), fault.ErrForbidden)
	require.NoError(t, p.UpdatePricing("owner", tiers, now))
	assert.Equal(t, int64(2500), p.Tiers.OneDay.Amount)

	assert.ErrorIs(t, p.SoftDelete("intruder", now), fault.ErrForbidden)
	require.NoError(t, p.SoftDelete("owner", now))
	assert.False(t, p.Available())
	assert.ErrorIs(t, p.SoftDelete("owner", now), fault.ErrProductUnavailable)
	assert.ErrorIs(t, p.UpdatePricing("owner", tiers, now), fault.ErrProductUnavailable)
}
