package transpile

import (
	"fmt"

	"github.com/jaskrrish/go-starq/circuit"
)

// StateError reports a violation of the resonator single-occupancy invariant:
// a double entry, an exit from a mismatched or empty resonator, or a MOVE
// between a pair with no calibration.
type StateError struct {
	Qubit     string
	Resonator string
	// Occupant is the qubit whose state currently sits in the resonator,
	// when one does.
	Occupant string
	Reason   string
}

func (e *StateError) Error() string {
	msg := fmt.Sprintf("cannot MOVE between %s and %s: %s", e.Qubit, e.Resonator, e.Reason)
	if e.Occupant != "" {
		msg += fmt.Sprintf(" (state of %s)", e.Occupant)
	}
	return msg
}

// RoutingError reports that no viable MOVE exists to make a required
// 2-component instruction executable under the device connectivity.
type RoutingError struct {
	Locus circuit.Locus
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("no qubit of (%s) can reach a resonator; route the circuit on the resonator-free connectivity graph first", e.Locus)
}
