package reviews

import (
	"context"

	"hirely/internal/app/uow"
	domainproducts "hirely/internal/domain/products"
)

// productRating returns the number of reviews and their mean rating.
func productRating(ctx context.Context, unit uow.UnitOfWork, productID domainproducts.ProductID) (int, float64, error) {
	all, err := unit.Reviews().ListByProduct(ctx, productID, 0, 0)
	if err != nil {
		return 0, 0, err
	}
	var total int
	for _, review := range all {
		total += review.Rating
	}
	average := 0.0
	if len(all) > 0 {
		average = float64(total) / float64(len(all))
	}
	return len(all), average, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
