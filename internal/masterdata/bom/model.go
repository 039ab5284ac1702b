package bom

import (
	"time"
)

// Line represents one bill-of-materials row: the quantity of a raw material
// consumed to produce one unit of a product.
type Line struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	MaterialID   int64     `json:"material_id"`
	MaterialName string    `json:"material_name,omitempty"`
	MaterialUnit string    `json:"material_unit,omitempty"`
	Quantity     int64     `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
