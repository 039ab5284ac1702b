package shared

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentNumberFormat(t *testing.T) {
	number := DocumentNumber("PO")
	require.Regexp(t, regexp.MustCompile(`^PO-\d{8}-[0-9A-F]{8}$`), number)
}

func TestDocumentNumberIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := DocumentNumber("WO")
		require.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
}
