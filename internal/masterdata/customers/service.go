package customers

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

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Customer, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, fmt.Errorf("%w: invalid customer id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Customer) (Customer, error) {
	if err := s.validate(c); err != nil {
		return Customer{}, err
	}
	if c.Status == "" {
		c.Status = mdshared.StatusActive
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, c Customer) (Customer, error) {
	if id <= 0 {
		return Customer{}, fmt.Errorf("%w: invalid customer id", shared.ErrValidation)
	}
	if err := s.validate(c); err != nil {
		return Customer{}, err
	}
	if c.Status == "" {
		c.Status = mdshared.StatusActive
	}
	if err := s.repo.Update(ctx, id, c); err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid customer id", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
