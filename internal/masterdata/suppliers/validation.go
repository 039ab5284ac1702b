package suppliers

import (
	"fmt"
	"strings"

	mdshared "github.com/fabrika-mes/fabrika/internal/masterdata/shared"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

func (s *Service) validate(sup Supplier) error {
	if strings.TrimSpace(sup.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if sup.Email != "" && !strings.Contains(sup.Email, "@") {
		return fmt.Errorf("%w: email is malformed", shared.ErrValidation)
	}
	if sup.Status != "" && sup.Status != mdshared.StatusActive && sup.Status != mdshared.StatusInactive {
		return fmt.Errorf("%w: status must be active or inactive", shared.ErrValidation)
	}
	return nil
}
