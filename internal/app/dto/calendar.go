package dto

type UnavailableDates struct {
	ProductID string   `json:"product_id"`
	Dates     []string `json:"dates"`
}
