package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentNumber builds a human-readable document number such as
// PO-20260831-1A2B3C4D. The random suffix keeps concurrent creators from
// colliding; the unique index on the number column is the backstop.
func DocumentNumber(prefix string) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), suffix)
}
