package products

import (
	"fmt"
	"strings"

	mdshared "github.com/fabrika-mes/fabrika/internal/masterdata/shared"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: sku is required", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if p.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price must not be negative", shared.ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", shared.ErrValidation)
	}
	if p.MinStock < 0 {
		return fmt.Errorf("%w: min_stock must not be negative", shared.ErrValidation)
	}
	if p.Status != "" && p.Status != mdshared.StatusActive && p.Status != mdshared.StatusInactive {
		return fmt.Errorf("%w: status must be active or inactive", shared.ErrValidation)
	}
	return nil
}
