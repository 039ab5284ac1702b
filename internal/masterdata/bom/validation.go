package bom

import (
	"fmt"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

func (s *Service) validate(line Line) error {
	if line.ProductID <= 0 {
		return fmt.Errorf("%w: product_id is required", shared.ErrValidation)
	}
	if line.MaterialID <= 0 {
		return fmt.Errorf("%w: material_id is required", shared.ErrValidation)
	}
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}
	return nil
}
