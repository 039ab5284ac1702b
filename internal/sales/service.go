package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fabrika-mes/fabrika/internal/shared"
	"github.com/fabrika-mes/fabrika/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (SalesOrder, error)
	List(ctx context.Context, filter ListFilter) ([]SalesOrder, int, error)
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates sales order flows.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs sales service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item required", shared.ErrValidation)
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: product_id required", shared.ErrValidation)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
		}
	}
	return nil
}

func buildItems(soID int64, inputs []ItemInput) ([]Item, decimal.Decimal) {
	total := decimal.Zero
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		subtotal := in.Price.Mul(decimal.NewFromInt(in.Quantity))
		total = total.Add(subtotal)
		items = append(items, Item{
			SOID:      soID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Price:     in.Price,
			Subtotal:  subtotal,
		})
	}
	return items, total
}

// Create persists the order header and lines. Line subtotals and the order
// total are always recomputed server side from quantity and price.
func (s *Service) Create(ctx context.Context, input CreateInput) (SalesOrder, error) {
	if err := validateItems(input.Items); err != nil {
		return SalesOrder{}, err
	}
	if input.CustomerID <= 0 {
		return SalesOrder{}, fmt.Errorf("%w: customer_id required", shared.ErrValidation)
	}
	if input.SONumber == "" {
		input.SONumber = shared.DocumentNumber("SO")
	}
	if input.OrderDate.IsZero() {
		input.OrderDate = time.Now()
	}

	so := SalesOrder{
		SONumber:   input.SONumber,
		CustomerID: input.CustomerID,
		OrderDate:  input.OrderDate,
		Status:     StatusPending,
		Notes:      input.Notes,
		CreatedBy:  input.CreatedBy,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Create(ctx, so)
		if err != nil {
			return err
		}
		items, total := buildItems(id, input.Items)
		for _, item := range items {
			if err := tx.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		so.ID = id
		so.Total = total
		so.Items = items
		return tx.UpdateHeader(ctx, so)
	})
	if err != nil {
		return SalesOrder{}, err
	}
	s.recordAudit(ctx, "SO_CREATE", so.ID, so.CreatedBy, map[string]any{"so_number": so.SONumber, "total": so.Total})
	return so, nil
}

// Get returns one sales order with items.
func (s *Service) Get(ctx context.Context, id int64) (SalesOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns sales orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]SalesOrder, int, error) {
	return s.repo.List(ctx, filter)
}

// Update rewrites header fields and, when items are provided, replaces the
// lines. Only pending and confirmed orders can change.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (SalesOrder, error) {
	if len(input.Items) > 0 {
		if err := validateItems(input.Items); err != nil {
			return SalesOrder{}, err
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		so, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if so.Status != StatusPending && so.Status != StatusConfirmed {
			return fmt.Errorf("%w: cannot update %s sales order", shared.ErrInvalidTransition, so.Status)
		}
		if input.CustomerID != 0 {
			so.CustomerID = input.CustomerID
		}
		if !input.OrderDate.IsZero() {
			so.OrderDate = input.OrderDate
		}
		so.Notes = input.Notes
		if len(input.Items) > 0 {
			if err := tx.DeleteItems(ctx, id); err != nil {
				return err
			}
			items, total := buildItems(id, input.Items)
			for _, item := range items {
				if err := tx.InsertItem(ctx, item); err != nil {
					return err
				}
			}
			so.Total = total
		}
		return tx.UpdateHeader(ctx, so)
	})
	if err != nil {
		return SalesOrder{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a sales order that has not shipped.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		so, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if so.Status == StatusShipped || so.Status == StatusCompleted {
			return fmt.Errorf("%w: cannot delete %s sales order", shared.ErrInvalidTransition, so.Status)
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
}

// Confirm moves a pending order to confirmed.
func (s *Service) Confirm(ctx context.Context, id int64, actorID int64) (SalesOrder, error) {
	so, err := s.transition(ctx, id, StatusConfirmed)
	if err != nil {
		return SalesOrder{}, err
	}
	s.recordAudit(ctx, "SO_CONFIRM", id, actorID, map[string]any{"so_number": so.SONumber})
	return so, nil
}

// Complete closes a shipped order. No stock moves here; the goods already
// left at shipping time.
func (s *Service) Complete(ctx context.Context, id int64, actorID int64) (SalesOrder, error) {
	so, err := s.transition(ctx, id, StatusCompleted)
	if err != nil {
		return SalesOrder{}, err
	}
	s.recordAudit(ctx, "SO_COMPLETE", id, actorID, map[string]any{"so_number": so.SONumber})
	return so, nil
}

// Cancel cancels an order that has not shipped.
func (s *Service) Cancel(ctx context.Context, id int64, actorID int64) (SalesOrder, error) {
	so, err := s.transition(ctx, id, StatusCancelled)
	if err != nil {
		return SalesOrder{}, err
	}
	s.recordAudit(ctx, "SO_CANCEL", id, actorID, map[string]any{"so_number": so.SONumber})
	return so, nil
}

func (s *Service) transition(ctx context.Context, id int64, to Status) (SalesOrder, error) {
	var so SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		so, err = tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(so.Status, to); err != nil {
			return err
		}
		so.Status = to
		return tx.UpdateStatus(ctx, id, to)
	})
	if err != nil {
		return SalesOrder{}, err
	}
	return so, nil
}

// Ship posts a confirmed sales order: every line decrements the product stock
// and appends a ledger row, then the order becomes shipped. A line without
// enough stock fails the whole transaction, so no partial shipment is ever
// visible.
func (s *Service) Ship(ctx context.Context, id int64, actorID int64) (ShipResult, error) {
	var result ShipResult
	var soNumber string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		so, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(so.Status, StatusShipped); err != nil {
			return err
		}
		items, err := tx.GetItems(ctx, id)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: sales order has no items", shared.ErrValidation)
		}
		soNumber = so.SONumber

		ledger := tx.Ledger()
		logIDs := make([]int64, 0, len(items))
		for _, item := range items {
			if _, err := ledger.AdjustStock(ctx, stock.ItemTypeProduct, item.ProductID, stock.DirectionOut, item.Quantity); err != nil {
				return err
			}
			logID, err := ledger.LogMovement(ctx, stock.Movement{
				ItemType:      stock.ItemTypeProduct,
				ItemID:        item.ProductID,
				MovementType:  stock.MovementOut,
				Quantity:      item.Quantity,
				ReferenceType: stock.ReferenceSO,
				ReferenceID:   so.ID,
				Notes:         fmt.Sprintf("Shipped for SO: %s", so.SONumber),
				CreatedBy:     actorID,
			})
			if err != nil {
				return err
			}
			logIDs = append(logIDs, logID)
		}

		if err := tx.UpdateStatus(ctx, id, StatusShipped); err != nil {
			return err
		}
		result = ShipResult{Status: StatusShipped, StockLogIDs: logIDs}
		return nil
	})
	if err != nil {
		return ShipResult{}, err
	}
	s.recordAudit(ctx, "SO_SHIP", id, actorID, map[string]any{"so_number": soNumber, "stock_logs": result.StockLogIDs})
	return result, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID, actorID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "sales_order", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

