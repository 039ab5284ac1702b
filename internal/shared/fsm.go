package shared

import "fmt"

// TransitionRules maps each source status to the set of statuses reachable
// from it. Purchase, sales and work orders each carry their own table; the
// guard logic is identical across the three.
type TransitionRules[S ~string] map[S][]S

// Check returns ErrInvalidTransition when moving from->to is not listed in
// the rules. The zero table permits nothing.
func (r TransitionRules[S]) Check(from, to S) error {
	for _, next := range r[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
