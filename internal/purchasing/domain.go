package purchasing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

// Status of a purchase order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// transitions is the legal state machine. Receiving is the only transition
// that moves stock; received and cancelled are terminal.
var transitions = shared.TransitionRules[Status]{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusReceived, StatusCancelled},
}

// PurchaseOrder is an order placed with a supplier for raw materials.
type PurchaseOrder struct {
	ID         int64           `json:"id"`
	PONumber   string          `json:"po_number"`
	SupplierID int64           `json:"supplier_id"`
	OrderDate  time.Time       `json:"order_date"`
	Status     Status          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Notes      string          `json:"notes"`
	CreatedBy  int64           `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Items      []Item          `json:"items,omitempty"`
}

// Item is one purchase order line.
type Item struct {
	ID         int64           `json:"id"`
	POID       int64           `json:"po_id"`
	MaterialID int64           `json:"material_id"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// ListFilter narrows purchase order listings.
type ListFilter struct {
	Status     Status
	SupplierID int64
	Search     string
	Page       int
	PerPage    int
}

// ItemInput is a submitted order line.
type ItemInput struct {
	MaterialID int64
	Quantity   int64
	Price      decimal.Decimal
}

// CreateInput describes a purchase order to create.
type CreateInput struct {
	PONumber   string
	SupplierID int64
	OrderDate  time.Time
	Notes      string
	CreatedBy  int64
	Items      []ItemInput
}

// UpdateInput carries editable header fields and an optional item replacement.
type UpdateInput struct {
	SupplierID int64
	OrderDate  time.Time
	Notes      string
	Items      []ItemInput
}

// ReceiveResult reports a completed receive flow.
type ReceiveResult struct {
	Status      Status  `json:"status"`
	StockLogIDs []int64 `json:"stock_log_ids"`
}
