package suppliers

import (
	"context"
	"fmt"

	mdshared "github.com/fabrika-mes/fabrika/internal/masterdata/shared"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Supplier, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, fmt.Errorf("%w: invalid supplier id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, sup Supplier) (Supplier, error) {
	if err := s.validate(sup); err != nil {
		return Supplier{}, err
	}
	if sup.Status == "" {
		sup.Status = mdshared.StatusActive
	}
	return s.repo.Create(ctx, sup)
}

func (s *Service) Update(ctx context.Context, id int64, sup Supplier) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, fmt.Errorf("%w: invalid supplier id", shared.ErrValidation)
	}
	if err := s.validate(sup); err != nil {
		return Supplier{}, err
	}
	if sup.Status == "" {
		sup.Status = mdshared.StatusActive
	}
	if err := s.repo.Update(ctx, id, sup); err != nil {
		return Supplier{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid supplier id", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
