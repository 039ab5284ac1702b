package materials

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

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]RawMaterial, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (RawMaterial, error) {
	if id <= 0 {
		return RawMaterial{}, fmt.Errorf("%w: invalid material id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, m RawMaterial) (RawMaterial, error) {
	if err := s.validate(m); err != nil {
		return RawMaterial{}, err
	}
	if m.Status == "" {
		m.Status = mdshared.StatusActive
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Update(ctx context.Context, id int64, m RawMaterial) (RawMaterial, error) {
	if id <= 0 {
		return RawMaterial{}, fmt.Errorf("%w: invalid material id", shared.ErrValidation)
	}
	if err := s.validate(m); err != nil {
		return RawMaterial{}, err
	}
	if m.Status == "" {
		m.Status = mdshared.StatusActive
	}
	if err := s.repo.Update(ctx, id, m); err != nil {
		return RawMaterial{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid material id", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
