package products

import "time"

type ProductCreated struct {
	ProductID ProductID `json:"product_id"`
	OwnerID   string    `json:"owner_id"`
	At        time.Time `json:"at"`
}

func (e ProductCreated) EventName() string     { return "product.created" }
func (e ProductCreated) AggregateID() string   { return string(e.ProductID) }
func (e ProductCreated) OccurredAt() time.Time { return e.At }

type ProductRepriced struct {
	ProductID ProductID `json:"product_id"`
	At        time.Time `json:"at"`
}

func (e ProductRepriced) EventName() string     { return "product.repriced" }
func (e ProductRepriced) AggregateID() string   { return string(e.ProductID) }
func (e ProductRepriced) OccurredAt() time.Time { return e.At }

type ProductDeleted struct {
	ProductID ProductID `json:"product_id"`
	At        time.Time `json:"at"`
}

func (e ProductDeleted) EventName() string     { return "product.deleted" }
func (e ProductDeleted) AggregateID() string   { return string(e.ProductID) }
func (e ProductDeleted) OccurredAt() time.Time { return e.At }
