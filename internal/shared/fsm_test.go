package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type status string

func TestTransitionRulesCheck(t *testing.T) {
	rules := TransitionRules[status]{
		"pending":  {"approved", "cancelled"},
		"approved": {"received"},
	}

	require.NoError(t, rules.Check("pending", "approved"))
	require.NoError(t, rules.Check("approved", "received"))
	require.ErrorIs(t, rules.Check("pending", "received"), ErrInvalidTransition)
	require.ErrorIs(t, rules.Check("received", "pending"), ErrInvalidTransition)
	require.ErrorIs(t, rules.Check("unknown", "approved"), ErrInvalidTransition)
}

func TestZeroRulesPermitNothing(t *testing.T) {
	var rules TransitionRules[status]
	require.ErrorIs(t, rules.Check("a", "b"), ErrInvalidTransition)
}

func TestPaginationMetadata(t *testing.T) {
	p := NewPagination(2, 10, 25)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 10, p.Offset())

	p = NewPagination(0, 0, 0)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Equal(t, 0, p.Offset())
}
