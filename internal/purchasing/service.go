package purchasing

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
	Get(ctx context.Context, id int64) (PurchaseOrder, error)
	List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates purchase order flows.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs purchasing service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item required", shared.ErrValidation)
	}
	for _, item := range items {
		if item.MaterialID <= 0 {
			return fmt.Errorf("%w: material_id required", shared.ErrValidation)
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

func buildItems(poID int64, inputs []ItemInput) ([]Item, decimal.Decimal) {
	total := decimal.Zero
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		subtotal := in.Price.Mul(decimal.NewFromInt(in.Quantity))
		total = total.Add(subtotal)
		items = append(items, Item{
			POID:       poID,
			MaterialID: in.MaterialID,
			Quantity:   in.Quantity,
			Price:      in.Price,
			Subtotal:   subtotal,
		})
	}
	return items, total
}

// Create persists the order header and lines. Line subtotals and the order
// total are always recomputed server side from quantity and price.
func (s *Service) Create(ctx context.Context, input CreateInput) (PurchaseOrder, error) {
	if err := validateItems(input.Items); err != nil {
		return PurchaseOrder{}, err
	}
	if input.SupplierID <= 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: supplier_id required", shared.ErrValidation)
	}
	if input.PONumber == "" {
		input.PONumber = shared.DocumentNumber("PO")
	}
	if input.OrderDate.IsZero() {
		input.OrderDate = time.Now()
	}

	po := PurchaseOrder{
		PONumber:   input.PONumber,
		SupplierID: input.SupplierID,
		OrderDate:  input.OrderDate,
		Status:     StatusPending,
		Notes:      input.Notes,
		CreatedBy:  input.CreatedBy,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Create(ctx, po)
		if err != nil {
			return err
		}
		items, total := buildItems(id, input.Items)
		for _, item := range items {
			if err := tx.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		po.ID = id
		po.Total = total
		po.Items = items
		return tx.UpdateHeader(ctx, po)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_CREATE", po.ID, po.CreatedBy, map[string]any{"po_number": po.PONumber, "total": po.Total})
	return po, nil
}

// Get returns one purchase order with items.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns purchase orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error) {
	return s.repo.List(ctx, filter)
}

// Update rewrites header fields and, when items are provided, replaces the
// lines. Orders that are received or cancelled can no longer change.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (PurchaseOrder, error) {
	if len(input.Items) > 0 {
		if err := validateItems(input.Items); err != nil {
			return PurchaseOrder{}, err
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived || po.Status == StatusCancelled {
			return fmt.Errorf("%w: cannot update %s purchase order", shared.ErrInvalidTransition, po.Status)
		}
		if input.SupplierID != 0 {
			po.SupplierID = input.SupplierID
		}
		if !input.OrderDate.IsZero() {
			po.OrderDate = input.OrderDate
		}
		po.Notes = input.Notes
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
			po.Total = total
		}
		return tx.UpdateHeader(ctx, po)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a purchase order that has not been received.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived {
			return fmt.Errorf("%w: cannot delete received purchase order", shared.ErrInvalidTransition)
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
}

// Approve moves a pending order to approved.
func (s *Service) Approve(ctx context.Context, id int64, actorID int64) (PurchaseOrder, error) {
	po, err := s.transition(ctx, id, StatusApproved)
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_APPROVE", id, actorID, map[string]any{"po_number": po.PONumber})
	return po, nil
}

// Cancel cancels an order that has not been received.
func (s *Service) Cancel(ctx context.Context, id int64, actorID int64) (PurchaseOrder, error) {
	po, err := s.transition(ctx, id, StatusCancelled)
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_CANCEL", id, actorID, map[string]any{"po_number": po.PONumber})
	return po, nil
}

func (s *Service) transition(ctx context.Context, id int64, to Status) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		po, err = tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(po.Status, to); err != nil {
			return err
		}
		po.Status = to
		return tx.UpdateStatus(ctx, id, to)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	return po, nil
}

// Receive posts an approved purchase order: every line increments the
// material stock and appends a ledger row, then the order becomes received.
// Any failure rolls the whole transaction back, so there is no partial receipt.
func (s *Service) Receive(ctx context.Context, id int64, actorID int64) (ReceiveResult, error) {
	var result ReceiveResult
	var poNumber string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(po.Status, StatusReceived); err != nil {
			return err
		}
		items, err := tx.GetItems(ctx, id)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: purchase order has no items", shared.ErrValidation)
		}
		poNumber = po.PONumber

		ledger := tx.Ledger()
		logIDs := make([]int64, 0, len(items))
		for _, item := range items {
			if _, err := ledger.AdjustStock(ctx, stock.ItemTypeMaterial, item.MaterialID, stock.DirectionIn, item.Quantity); err != nil {
				return err
			}
			logID, err := ledger.LogMovement(ctx, stock.Movement{
				ItemType:      stock.ItemTypeMaterial,
				ItemID:        item.MaterialID,
				MovementType:  stock.MovementIn,
				Quantity:      item.Quantity,
				ReferenceType: stock.ReferencePO,
				ReferenceID:   po.ID,
				Notes:         fmt.Sprintf("Received from PO: %s", po.PONumber),
				CreatedBy:     actorID,
			})
			if err != nil {
				return err
			}
			logIDs = append(logIDs, logID)
		}

		if err := tx.UpdateStatus(ctx, id, StatusReceived); err != nil {
			return err
		}
		result = ReceiveResult{Status: StatusReceived, StockLogIDs: logIDs}
		return nil
	})
	if err != nil {
		return ReceiveResult{}, err
	}
	s.recordAudit(ctx, "PO_RECEIVE", id, actorID, map[string]any{"po_number": poNumber, "stock_logs": result.StockLogIDs})
	return result, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID, actorID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "purchase_order", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

