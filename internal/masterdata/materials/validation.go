package materials

import (
	"fmt"
	"strings"

	mdshared "github.com/fabrika-mes/fabrika/internal/masterdata/shared"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

func (s *Service) validate(m RawMaterial) error {
	if strings.TrimSpace(m.SKU) == "" {
		return fmt.Errorf("%w: sku is required", shared.ErrValidation)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(m.Unit) == "" {
		return fmt.Errorf("%w: unit is required", shared.ErrValidation)
	}
	if m.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price must not be negative", shared.ErrValidation)
	}
	if m.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", shared.ErrValidation)
	}
	if m.MinStock < 0 {
		return fmt.Errorf("%w: min_stock must not be negative", shared.ErrValidation)
	}
	if m.Status != "" && m.Status != mdshared.StatusActive && m.Status != mdshared.StatusInactive {
		return fmt.Errorf("%w: status must be active or inactive", shared.ErrValidation)
	}
	return nil
}
