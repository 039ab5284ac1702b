package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

// Status of a sales order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the legal state machine. Shipping is the only transition
// that moves stock; completion is a paperwork step after the goods left.
var transitions = shared.TransitionRules[Status]{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusCompleted},
}

// SalesOrder is an order from a customer for finished products.
type SalesOrder struct {
	ID         int64           `json:"id"`
	SONumber   string          `json:"so_number"`
	CustomerID int64           `json:"customer_id"`
	OrderDate  time.Time       `json:"order_date"`
	Status     Status          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Notes      string          `json:"notes"`
	CreatedBy  int64           `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Items      []Item          `json:"items,omitempty"`
}

// Item is one sales order line.
type Item struct {
	ID        int64           `json:"id"`
	SOID      int64           `json:"so_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ListFilter narrows sales order listings.
type ListFilter struct {
	Status     Status
	CustomerID int64
	Search     string
	Page       int
	PerPage    int
}

// ItemInput is one requested line on create or update.
type ItemInput struct {
	ProductID int64
	Quantity  int64
	Price     decimal.Decimal
}

// CreateInput carries a new sales order.
type CreateInput struct {
	SONumber   string
	CustomerID int64
	OrderDate  time.Time
	Notes      string
	CreatedBy  int64
	Items      []ItemInput
}

// UpdateInput carries header changes and an optional line replacement.
type UpdateInput struct {
	CustomerID int64
	OrderDate  time.Time
	Notes      string
	Items      []ItemInput
}

// ShipResult reports the outcome of shipping an order.
type ShipResult struct {
	Status      Status  `json:"status"`
	StockLogIDs []int64 `json:"stock_log_ids"`
}
