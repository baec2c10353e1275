package dto

import (
	"time"

	domainproducts "hirely/internal/domain/products"
)

type Product struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tiers       Tiers     `json:"tiers"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductCollection struct {
	Items []Product `json:"items"`
}

func MapProduct(p *domainproducts.Product) Product {
	return Product{
		ID:          string(p.ID),
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Tiers:       MapTiers(p.Tiers),
		Quantity:    p.Quantity,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
