package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hirely/internal/domain/pricing"
	"hirely/internal/domain/shared/events"
	"hirely/internal/domain/shared/fault"
)

var (
	ErrNotFound         = fmt.Errorf("products: not found: %w", fault.ErrNotFound)
	ErrTitleRequired    = fmt.Errorf("products: title is required: %w", fault.ErrValidation)
	ErrOwnerRequired    = fmt.Errorf("products: owner is required: %w", fault.ErrValidation)
	ErrQuantity         = fmt.Errorf("products: quantity must be at least 1: %w", fault.ErrValidation)
	ErrNotOwner         = fmt.Errorf("products: only the owner may change a product: %w", fault.ErrForbidden)
	ErrAlreadyDeleted   = fmt.Errorf("products: product is deleted: %w", fault.ErrProductUnavailable)
	ErrConcurrentUpdate = fmt.Errorf("products: concurrent update: %w", fault.ErrConcurrencyConflict)
)

type ProductID string

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDeleted Status = "DELETED"
)

type Product struct {
	ID          ProductID
	OwnerID     string
	Title       string
	Description string
	Tiers       pricing.Tiers
	Quantity    int
	Status      Status
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ProductID) (*Product, error)
	Save(ctx context.Context, product *Product) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Product, error)
}

type CreateParams struct {
	ID          ProductID
	OwnerID     string
	Title       string
	Description string
	Tiers       pricing.Tiers
	Quantity    int
	Now         time.Time
}

func NewProduct(params CreateParams) (*Product, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("products: id is required")
	}
	owner := strings.TrimSpace(params.OwnerID)
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	quantity := params.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, ErrQuantity
	}
	if err := params.Tiers.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	p := &Product{
		ID:          params.ID,
		OwnerID:     owner,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Tiers:       params.Tiers,
		Quantity:    quantity,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Record(ProductCreated{ProductID: p.ID, OwnerID: p.OwnerID, At: now})
	return p, nil
}

// Available reports whether the product can currently be booked.
func (p *Product) Available() bool {
	return p.Status == StatusActive
}

func (p *Product) OwnedBy(userID string) bool {
	return p.OwnerID == strings.TrimSpace(userID)
}

func (p *Product) UpdatePricing(actorID string, tiers pricing.Tiers, now time.Time) error {
	if !p.OwnedBy(actorID) {
		return ErrNotOwner
	}
	if p.Status == StatusDeleted {
		return ErrAlreadyDeleted
	}
	if err := tiers.Validate(); err != nil {
		return err
	}
	p.Tiers = tiers
	p.UpdatedAt = now.UTC()
	p.Record(ProductRepriced{ProductID: p.ID, At: p.UpdatedAt})
	return nil
}

// SoftDelete flips the status; products are never removed so booking history
// keeps its references.
func (p *Product) SoftDelete(actorID string, now time.Time) error {
	if !p.OwnedBy(actorID) {
		return ErrNotOwner
	}
	if p.Status == StatusDeleted {
		return ErrAlreadyDeleted
	}
	p.Status = StatusDeleted
	p.UpdatedAt = now.UTC()
	p.Record(ProductDeleted{ProductID: p.ID, At: p.UpdatedAt})
	return nil
}
