package production

import (
	"time"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

// Status of a work order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the legal state machine. A running order can no longer be
// cancelled; completion is the only transition that moves stock.
var transitions = shared.TransitionRules[Status]{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// WorkOrder is an instruction to produce a quantity of one product.
type WorkOrder struct {
	ID               int64      `json:"id"`
	WONumber         string     `json:"wo_number"`
	ProductID        int64      `json:"product_id"`
	QuantityPlanned  int64      `json:"quantity_planned"`
	QuantityProduced int64      `json:"quantity_produced"`
	Status           Status     `json:"status"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	CompletionDate   *time.Time `json:"completion_date,omitempty"`
	Notes            string     `json:"notes"`
	CreatedBy        int64      `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BOMLine is the material quantity needed to produce one unit of a product.
type BOMLine struct {
	MaterialID int64
	Quantity   int64
}

// Requirement is one row of the material preview for a work order.
type Requirement struct {
	MaterialID       int64  `json:"material_id"`
	MaterialName     string `json:"material_name"`
	RequiredQuantity int64  `json:"required_quantity"`
	CurrentStock     int64  `json:"current_stock"`
	Shortage         int64  `json:"shortage"`
}

// ListFilter narrows work order listings.
type ListFilter struct {
	Status    Status
	ProductID int64
	Search    string
	Page      int
	PerPage   int
}

// CreateInput carries a new work order.
type CreateInput struct {
	WONumber        string
	ProductID       int64
	QuantityPlanned int64
	Notes           string
	CreatedBy       int64
}

// UpdateInput carries header changes for a pending work order.
type UpdateInput struct {
	ProductID       int64
	QuantityPlanned int64
	Notes           string
}

// CompleteResult reports the outcome of completing a work order.
type CompleteResult struct {
	Status           Status  `json:"status"`
	QuantityProduced int64   `json:"quantity_produced"`
	StockLogIDs      []int64 `json:"stock_log_ids"`
}
