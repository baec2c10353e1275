package products

import (
	"context"
	"log/slog"
	"strings"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/outbox"
	"hirely/internal/app/uow"
	"hirely/internal/domain/pricing"
	domainproducts "hirely/internal/domain/products"
	"hirely/internal/domain/shared/money"
)

const (
	createProductKey        = "products.create"
	updateProductPricingKey = "products.update_pricing"
	deleteProductKey        = "products.delete"
)

// TierInput holds per-day rates in minor units of the platform currency.
type TierInput struct {
	OneDay   int64  `validate:"gt=0"`
	ThreeDay *int64 `validate:"omitempty,gt=0"`
	SevenDay *int64 `validate:"omitempty,gt=0"`
}

func (t TierInput) toTiers(currency string) pricing.Tiers {
	tiers := pricing.Tiers{OneDay: money.Money{Amount: t.OneDay, Currency: currency}}
	if t.ThreeDay != nil {
		tiers.ThreeDay = &money.Money{Amount: *t.ThreeDay, Currency: currency}
	}
	if t.SevenDay != nil {
		tiers.SevenDay = &money.Money{Amount: *t.SevenDay, Currency: currency}
	}
	return tiers
}

type CreateProductCommand struct {
	ProductID   string
	OwnerID     string `validate:"required"`
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=4000"`
	Tiers       TierInput
	Quantity    int `validate:"gte=0"`
}

func (c CreateProductCommand) Key() string { return createProductKey }

func (c CreateProductCommand) Actor() string { return c.OwnerID }

type CreateProductHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*dto.Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		productID = support.NewID()
	}
	product, err := domainproducts.NewProduct(domainproducts.CreateParams{
		ID:          domainproducts.ProductID(productID),
		OwnerID:     cmd.OwnerID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Tiers:       cmd.Tiers.toTiers(h.Currency),
		Quantity:    cmd.Quantity,
		Now:         h.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	err = support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := unit.Products().Save(ctx, product); err != nil {
			return err
		}
		return support.RecordEvents(ctx, unit, h.Encoder, product.Drain())
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("product created", "product_id", product.ID, "owner_id", product.OwnerID)
	}
	result := dto.MapProduct(product)
	return &result, nil
}

type UpdateProductPricingCommand struct {
	ProductID string `validate:"required"`
	ActorID   string `validate:"required"`
	Tiers     TierInput
}

func (c UpdateProductPricingCommand) Key() string { return updateProductPricingKey }

func (c UpdateProductPricingCommand) Actor() string { return c.ActorID }

// UpdateProductPricingHandler replaces the tiers. Existing bookings keep the
// amounts they were created with.
type UpdateProductPricingHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *UpdateProductPricingHandler) Handle(ctx context.Context, cmd UpdateProductPricingCommand) (*dto.Product, error) {
	now := h.Clock.Now()
	var result dto.Product
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		product, err := unit.Products().ByID(ctx, domainproducts.ProductID(cmd.ProductID))
		if err != nil {
			return err
		}
		if err := product.UpdatePricing(cmd.ActorID, cmd.Tiers.toTiers(h.Currency), now); err != nil {
			return err
		}
		if err := unit.Products().Save(ctx, product); err != nil {
			return err
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, product.Drain()); err != nil {
			return err
		}
		result = dto.MapProduct(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("product repriced", "product_id", result.ID, "actor_id", cmd.ActorID)
	}
	return &result, nil
}

type DeleteProductCommand struct {
	ProductID string `validate:"required"`
	ActorID   string `validate:"required"`
}

func (c DeleteProductCommand) Key() string { return deleteProductKey }

func (c DeleteProductCommand) Actor() string { return c.ActorID }

type DeleteProductHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) (*dto.Product, error) {
	now := h.Clock.Now()
	var result dto.Product
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		product, err := unit.Products().ByID(ctx, domainproducts.ProductID(cmd.ProductID))
		if err != nil {
			return err
		}
		if err := product.SoftDelete(cmd.ActorID, now); err != nil {
			return err
		}
		if err := unit.Products().Save(ctx, product); err != nil {
			return err
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, product.Drain()); err != nil {
			return err
		}
		result = dto.MapProduct(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("product deleted", "product_id", result.ID, "actor_id", cmd.ActorID)
	}
	return &result, nil
}

var (
	_ commands.Handler[CreateProductCommand, *dto.Product]        = (*CreateProductHandler)(nil)
	_ commands.Handler[UpdateProductPricingCommand, *dto.Product] = (*UpdateProductPricingHandler)(nil)
	_ commands.Handler[DeleteProductCommand, *dto.Product]        = (*DeleteProductHandler)(nil)
)
