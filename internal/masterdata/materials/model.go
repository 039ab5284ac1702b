package materials

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawMaterial represents a purchasable raw material
type RawMaterial struct {
	ID         int64           `json:"id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Stock      int64           `json:"stock"`
	MinStock   int64           `json:"min_stock"`
	SupplierID *int64          `json:"supplier_id,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
