package products

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/queries"
	"hirely/internal/app/uow"
	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/daterange"
)

const (
	getProductKey        = "products.get"
	listOwnerProductsKey = "products.list_by_owner"
	previewPriceKey      = "products.preview_price"
)

type GetProductQuery struct {
	ProductID string `validate:"required"`
}

func (q GetProductQuery) Key() string { return getProductKey }

type GetProductHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetProductHandler) Handle(ctx context.Context, q GetProductQuery) (dto.Product, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Product{}, err
	}
	defer cleanup()

	product, err := unit.Products().ByID(execCtx, domainproducts.ProductID(q.ProductID))
	if err != nil {
		return dto.Product{}, err
	}
	return dto.MapProduct(product), nil
}

type ListOwnerProductsQuery struct {
	OwnerID        string `validate:"required"`
	IncludeDeleted bool
}

func (q ListOwnerProductsQuery) Key() string { return listOwnerProductsKey }

type ListOwnerProductsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListOwnerProductsHandler) Handle(ctx context.Context, q ListOwnerProductsQuery) (dto.ProductCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ProductCollection{}, err
	}
	defer cleanup()

	owned, err := unit.Products().ListByOwner(execCtx, q.OwnerID)
	if err != nil {
		return dto.ProductCollection{}, err
	}
	items := make([]dto.Product, 0, len(owned))
	for _, p := range owned {
		if !q.IncludeDeleted && !p.Available() {
			continue
		}
		items = append(items, dto.MapProduct(p))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.ProductCollection{Items: items}, nil
}

// PreviewPriceQuery estimates a rental for display. The figures come from the
// preview policy and are not what CreateBooking charges.
type PreviewPriceQuery struct {
	ProductID string    `validate:"required"`
	Start     time.Time `validate:"required"`
	End       time.Time `validate:"required"`
	Quantity  int       `validate:"gte=0"`
}

func (q PreviewPriceQuery) Key() string { return previewPriceKey }

type PreviewPriceHandler struct {
	UoWFactory uow.UoWFactory
	Policy     pricing.PreviewPolicy
	Logger     *slog.Logger
}

func (h *PreviewPriceHandler) Handle(ctx context.Context, q PreviewPriceQuery) (dto.PricePreview, error) {
	dr, err := daterange.New(q.Start, q.End)
	if err != nil {
		return dto.PricePreview{}, err
	}
	days, err := pricing.DaysBetween(dr)
	if err != nil {
		return dto.PricePreview{}, err
	}
	quantity := q.Quantity
	if quantity == 0 {
		quantity = 1
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PricePreview{}, err
	}
	defer cleanup()

	product, err := unit.Products().ByID(execCtx, domainproducts.ProductID(q.ProductID))
	if err != nil {
		return dto.PricePreview{}, err
	}
	if !product.Available() {
		return dto.PricePreview{}, domainproducts.ErrAlreadyDeleted
	}
	preview, err := h.Policy.Preview(product.Tiers, days, quantity)
	if err != nil {
		return dto.PricePreview{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("price previewed", "product_id", product.ID, "days", days, "quantity", quantity, "total", preview.Total.String())
	}
	return dto.MapPreview(string(product.ID), preview), nil
}

var (
	_ queries.Handler[GetProductQuery, dto.Product]                  = (*GetProductHandler)(nil)
	_ queries.Handler[ListOwnerProductsQuery, dto.ProductCollection] = (*ListOwnerProductsHandler)(nil)
	_ queries.Handler[PreviewPriceQuery, dto.PricePreview]           = (*PreviewPriceHandler)(nil)
)
