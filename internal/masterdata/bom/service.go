package bom

import (
	"context"
	"fmt"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]Line, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return s.repo.ListByProduct(ctx, productID)
}

func (s *Service) Get(ctx context.Context, id int64) (Line, error) {
	if id <= 0 {
		return Line{}, fmt.Errorf("%w: invalid bom line id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, line Line) (Line, error) {
	if err := s.validate(line); err != nil {
		return Line{}, err
	}
	return s.repo.Create(ctx, line)
}

func (s *Service) Update(ctx context.Context, id int64, quantity int64) (Line, error) {
	if id <= 0 {
		return Line{}, fmt.Errorf("%w: invalid bom line id", shared.ErrValidation)
	}
	if quantity <= 0 {
		return Line{}, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, id, quantity); err != nil {
		return Line{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid bom line id", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
