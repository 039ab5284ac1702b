package stock

import (
	"fmt"
	"time"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

// ItemType selects which stock counter a movement touches.
type ItemType string

const (
	ItemTypeMaterial ItemType = "material"
	ItemTypeProduct  ItemType = "product"
)

// Valid reports whether the item type is one of the known kinds.
func (t ItemType) Valid() bool {
	return t == ItemTypeMaterial || t == ItemTypeProduct
}

// Direction of a stock adjustment.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// MovementType recorded on a ledger row. Order flows write in/out; manual
// corrections write adjust with a signed quantity.
type MovementType string

const (
	MovementIn     MovementType = "in"
	MovementOut    MovementType = "out"
	MovementAdjust MovementType = "adjust"
)

// ReferenceType links a ledger row back to the document that moved the goods.
type ReferenceType string

const (
	ReferencePO         ReferenceType = "PO"
	ReferenceSO         ReferenceType = "SO"
	ReferenceWO         ReferenceType = "WO"
	ReferenceAdjustment ReferenceType = "ADJUSTMENT"
)

// Movement describes one ledger row to be written. Quantity is positive for
// in/out movements; adjust movements carry the signed delta.
type Movement struct {
	ItemType      ItemType
	ItemID        int64
	MovementType  MovementType
	Quantity      int64
	ReferenceType ReferenceType
	ReferenceID   int64
	Notes         string
	CreatedBy     int64
}

// Log is an immutable stock movement record. Rows are never updated or
// deleted; they are the audit trail of every stock change.
type Log struct {
	ID            int64         `json:"id"`
	ItemType      ItemType      `json:"item_type"`
	ItemID        int64         `json:"item_id"`
	MovementType  MovementType  `json:"movement_type"`
	Quantity      int64         `json:"quantity"`
	ReferenceType ReferenceType `json:"reference_type"`
	ReferenceID   int64         `json:"reference_id"`
	Notes         string        `json:"notes"`
	CreatedBy     int64         `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
}

// LogFilter narrows ledger listings.
type LogFilter struct {
	ItemType      ItemType
	ItemID        int64
	MovementType  MovementType
	ReferenceType ReferenceType
	Page          int
	PerPage       int
}

// ItemSummary is one row of the stock summary projection.
type ItemSummary struct {
	ItemType ItemType `json:"item_type"`
	ItemID   int64    `json:"item_id"`
	SKU      string   `json:"sku"`
	Name     string   `json:"name"`
	Stock    int64    `json:"stock"`
	MinStock int64    `json:"min_stock"`
	LowStock bool     `json:"low_stock"`
}

// AdjustInput describes a manual stock correction.
type AdjustInput struct {
	ItemType  ItemType
	ItemID    int64
	Direction Direction
	Quantity  int64
	Notes     string
	ActorID   int64
}

func (in AdjustInput) validate() error {
	if !in.ItemType.Valid() {
		return fmt.Errorf("%w: item_type must be material or product", shared.ErrValidation)
	}
	if in.ItemID <= 0 {
		return fmt.Errorf("%w: item_id required", shared.ErrValidation)
	}
	if in.Direction != DirectionIn && in.Direction != DirectionOut {
		return fmt.Errorf("%w: direction must be in or out", shared.ErrValidation)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}
	return nil
}
