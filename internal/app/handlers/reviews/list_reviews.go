package reviews

import (
	"context"
	"log/slog"

	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/queries"
	"hirely/internal/app/uow"
	domainproducts "hirely/internal/domain/products"
)

const listProductReviewsKey = "reviews.product.list"

// ListProductReviewsQuery pages through a product's reviews, newest first.
type ListProductReviewsQuery struct {
	ProductID string `validate:"required"`
	Limit     int    `validate:"gte=0"`
	Offset    int    `validate:"gte=0"`
}

func (q ListProductReviewsQuery) Key() string { return listProductReviewsKey }

type ListProductReviewsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListProductReviewsHandler) Handle(ctx context.Context, q ListProductReviewsQuery) (dto.ReviewCollection, error) {
	limit := normalizeLimit(q.Limit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	defer cleanup()

	productID := domainproducts.ProductID(q.ProductID)
	if _, err := unit.Products().ByID(execCtx, productID); err != nil {
		return dto.ReviewCollection{}, err
	}
	total, average, err := productRating(execCtx, unit, productID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	page, err := unit.Reviews().ListByProduct(execCtx, productID, limit, offset)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	items := make([]dto.Review, 0, len(page))
	for _, review := range page {
		items = append(items, dto.MapReview(review))
	}

	if h.Logger != nil {
		h.Logger.Debug("product reviews listed", "product_id", productID, "count", len(items), "total", total)
	}
	return dto.ReviewCollection{Items: items, Total: total, Average: average}, nil
}

var _ queries.Handler[ListProductReviewsQuery, dto.ReviewCollection] = (*ListProductReviewsHandler)(nil)
