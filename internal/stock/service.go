package stock

import (
	"context"
	"fmt"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxLedger) error) error
	ListLogs(ctx context.Context, filter LogFilter) ([]Log, int, error)
	MovementsByItem(ctx context.Context, itemType ItemType, itemID int64) ([]Log, error)
	Summary(ctx context.Context) ([]ItemSummary, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates ledger reads and manual adjustments.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	summary *SummaryCache
}

// NewService builds Service. The summary cache is optional.
func NewService(repo RepositoryPort, audit AuditPort, summary *SummaryCache) *Service {
	return &Service{repo: repo, audit: audit, summary: summary}
}

// Adjust applies a manual stock correction in its own transaction. The
// ledger row carries movement type adjust with a signed quantity so the
// movement history still reconciles against the counter.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (Log, error) {
	if err := input.validate(); err != nil {
		return Log{}, err
	}

	signed := input.Quantity
	if input.Direction == DirectionOut {
		signed = -input.Quantity
	}

	var entry Log
	err := s.repo.WithTx(ctx, func(ctx context.Context, ledger TxLedger) error {
		updated, err := ledger.AdjustStock(ctx, input.ItemType, input.ItemID, input.Direction, input.Quantity)
		if err != nil {
			return err
		}
		id, err := ledger.LogMovement(ctx, Movement{
			ItemType:      input.ItemType,
			ItemID:        input.ItemID,
			MovementType:  MovementAdjust,
			Quantity:      signed,
			ReferenceType: ReferenceAdjustment,
			Notes:         input.Notes,
			CreatedBy:     input.ActorID,
		})
		if err != nil {
			return err
		}
		entry = Log{
			ID:            id,
			ItemType:      input.ItemType,
			ItemID:        input.ItemID,
			MovementType:  MovementAdjust,
			Quantity:      signed,
			ReferenceType: ReferenceAdjustment,
			Notes:         input.Notes,
			CreatedBy:     input.ActorID,
		}
		_ = updated
		return nil
	})
	if err != nil {
		return Log{}, err
	}

	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "stock:adjust",
			Entity:   string(input.ItemType),
			EntityID: fmt.Sprintf("%d", input.ItemID),
			Meta: map[string]any{
				"direction": string(input.Direction),
				"quantity":  input.Quantity,
				"notes":     input.Notes,
			},
		})
	}
	return entry, nil
}

// ListLogs lists ledger entries.
func (s *Service) ListLogs(ctx context.Context, filter LogFilter) ([]Log, int, error) {
	if filter.ItemType != "" && !filter.ItemType.Valid() {
		return nil, 0, fmt.Errorf("%w: item_type must be material or product", shared.ErrValidation)
	}
	return s.repo.ListLogs(ctx, filter)
}

// MovementsByItem lists the ledger of one item.
func (s *Service) MovementsByItem(ctx context.Context, itemType ItemType, itemID int64) ([]Log, error) {
	if !itemType.Valid() {
		return nil, fmt.Errorf("%w: item_type must be material or product", shared.ErrValidation)
	}
	if itemID <= 0 {
		return nil, fmt.Errorf("%w: item_id required", shared.ErrValidation)
	}
	return s.repo.MovementsByItem(ctx, itemType, itemID)
}

// Summary returns current stock per item, served from cache when available.
func (s *Service) Summary(ctx context.Context) ([]ItemSummary, error) {
	if s.summary == nil {
		return s.repo.Summary(ctx)
	}
	return s.summary.Get(ctx, func() ([]ItemSummary, error) {
		return s.repo.Summary(ctx)
	})
}
