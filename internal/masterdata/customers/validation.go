package customers

import (
	"fmt"
	"strings"

	mdshared "github.com/fabrika-mes/fabrika/internal/masterdata/shared"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

func (s *Service) validate(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return fmt.Errorf("%w: email is malformed", shared.ErrValidation)
	}
	if c.Status != "" && c.Status != mdshared.StatusActive && c.Status != mdshared.StatusInactive {
		return fmt.Errorf("%w: status must be active or inactive", shared.ErrValidation)
	}
	return nil
}
