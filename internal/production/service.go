package production

import (
	"context"
	"fmt"

	"github.com/fabrika-mes/fabrika/internal/shared"
	"github.com/fabrika-mes/fabrika/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (WorkOrder, error)
	List(ctx context.Context, filter ListFilter) ([]WorkOrder, int, error)
	Requirements(ctx context.Context, id int64) ([]Requirement, error)
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates work order flows.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs production service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a pending work order.
func (s *Service) Create(ctx context.Context, input CreateInput) (WorkOrder, error) {
	if input.ProductID <= 0 {
		return WorkOrder{}, fmt.Errorf("%w: product_id required", shared.ErrValidation)
	}
	if input.QuantityPlanned <= 0 {
		return WorkOrder{}, fmt.Errorf("%w: quantity_planned must be positive", shared.ErrValidation)
	}
	if input.WONumber == "" {
		input.WONumber = shared.DocumentNumber("WO")
	}

	wo := WorkOrder{
		WONumber:        input.WONumber,
		ProductID:       input.ProductID,
		QuantityPlanned: input.QuantityPlanned,
		Status:          StatusPending,
		Notes:           input.Notes,
		CreatedBy:       input.CreatedBy,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Create(ctx, wo)
		if err != nil {
			return err
		}
		wo.ID = id
		return nil
	})
	if err != nil {
		return WorkOrder{}, err
	}
	s.recordAudit(ctx, "WO_CREATE", wo.ID, wo.CreatedBy, map[string]any{"wo_number": wo.WONumber})
	return wo, nil
}

// Get returns one work order.
func (s *Service) Get(ctx context.Context, id int64) (WorkOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns work orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]WorkOrder, int, error) {
	return s.repo.List(ctx, filter)
}

// Requirements returns the read-only material preview for a work order. The
// quantities are based on quantity_planned, so the UI can warn about
// shortages before the order starts.
func (s *Service) Requirements(ctx context.Context, id int64) ([]Requirement, error) {
	return s.repo.Requirements(ctx, id)
}

// Update rewrites header fields of a pending work order.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (WorkOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if wo.Status != StatusPending {
			return fmt.Errorf("%w: cannot update %s work order", shared.ErrInvalidTransition, wo.Status)
		}
		if input.ProductID != 0 {
			wo.ProductID = input.ProductID
		}
		if input.QuantityPlanned != 0 {
			if input.QuantityPlanned < 0 {
				return fmt.Errorf("%w: quantity_planned must be positive", shared.ErrValidation)
			}
			wo.QuantityPlanned = input.QuantityPlanned
		}
		wo.Notes = input.Notes
		return tx.UpdateHeader(ctx, wo)
	})
	if err != nil {
		return WorkOrder{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a work order that has not completed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if wo.Status == StatusCompleted {
			return fmt.Errorf("%w: cannot delete completed work order", shared.ErrInvalidTransition)
		}
		return tx.Delete(ctx, id)
	})
}

// Start moves a pending order to in_progress and stamps the start date.
func (s *Service) Start(ctx context.Context, id int64, actorID int64) (WorkOrder, error) {
	var wo WorkOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		wo, err = tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(wo.Status, StatusInProgress); err != nil {
			return err
		}
		wo.Status = StatusInProgress
		return tx.MarkStarted(ctx, id)
	})
	if err != nil {
		return WorkOrder{}, err
	}
	s.recordAudit(ctx, "WO_START", id, actorID, map[string]any{"wo_number": wo.WONumber})
	return wo, nil
}

// Cancel cancels a pending work order.
func (s *Service) Cancel(ctx context.Context, id int64, actorID int64) (WorkOrder, error) {
	var wo WorkOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		wo, err = tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(wo.Status, StatusCancelled); err != nil {
			return err
		}
		wo.Status = StatusCancelled
		return tx.UpdateStatus(ctx, id, StatusCancelled)
	})
	if err != nil {
		return WorkOrder{}, err
	}
	s.recordAudit(ctx, "WO_CANCEL", id, actorID, map[string]any{"wo_number": wo.WONumber})
	return wo, nil
}

// Complete finishes a running work order: every BOM line consumes material
// stock proportional to the produced quantity, the finished product stock
// grows by the produced quantity, and every movement gets a ledger row. A
// material shortage fails the whole transaction instead of under-consuming.
func (s *Service) Complete(ctx context.Context, id int64, actorID int64, produced int64) (CompleteResult, error) {
	var result CompleteResult
	var woNumber string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		wo, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transitions.Check(wo.Status, StatusCompleted); err != nil {
			return err
		}
		if produced <= 0 || produced > wo.QuantityPlanned {
			return fmt.Errorf("%w: quantity_produced must be between 1 and %d", shared.ErrValidation, wo.QuantityPlanned)
		}
		woNumber = wo.WONumber

		lines, err := tx.BOMLines(ctx, wo.ProductID)
		if err != nil {
			return err
		}

		ledger := tx.Ledger()
		logIDs := make([]int64, 0, len(lines)+1)
		for _, line := range lines {
			required := line.Quantity * produced
			if _, err := ledger.AdjustStock(ctx, stock.ItemTypeMaterial, line.MaterialID, stock.DirectionOut, required); err != nil {
				return err
			}
			logID, err := ledger.LogMovement(ctx, stock.Movement{
				ItemType:      stock.ItemTypeMaterial,
				ItemID:        line.MaterialID,
				MovementType:  stock.MovementOut,
				Quantity:      required,
				ReferenceType: stock.ReferenceWO,
				ReferenceID:   wo.ID,
				Notes:         fmt.Sprintf("Consumed by WO: %s", wo.WONumber),
				CreatedBy:     actorID,
			})
			if err != nil {
				return err
			}
			logIDs = append(logIDs, logID)
		}

		if _, err := ledger.AdjustStock(ctx, stock.ItemTypeProduct, wo.ProductID, stock.DirectionIn, produced); err != nil {
			return err
		}
		logID, err := ledger.LogMovement(ctx, stock.Movement{
			ItemType:      stock.ItemTypeProduct,
			ItemID:        wo.ProductID,
			MovementType:  stock.MovementIn,
			Quantity:      produced,
			ReferenceType: stock.ReferenceWO,
			ReferenceID:   wo.ID,
			Notes:         fmt.Sprintf("Produced by WO: %s", wo.WONumber),
			CreatedBy:     actorID,
		})
		if err != nil {
			return err
		}
		logIDs = append(logIDs, logID)

		if err := tx.MarkCompleted(ctx, id, produced); err != nil {
			return err
		}
		result = CompleteResult{Status: StatusCompleted, QuantityProduced: produced, StockLogIDs: logIDs}
		return nil
	})
	if err != nil {
		return CompleteResult{}, err
	}
	s.recordAudit(ctx, "WO_COMPLETE", id, actorID, map[string]any{"wo_number": woNumber, "quantity_produced": produced, "stock_logs": result.StockLogIDs})
	return result, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID, actorID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "work_order", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
