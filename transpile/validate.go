package transpile

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jaskrrish/go-starq/circuit"
	"github.com/jaskrrish/go-starq/qpu"
)

// MoveValidationMode picks how strictly ValidateMoves checks the gates
// surrounding MOVE instructions.
type MoveValidationMode string

const (
	// MoveValidationStrict requires balanced MOVE sandwiches with no gate
	// acting on the moved qubit while its state is in the resonator.
	MoveValidationStrict MoveValidationMode = "strict"
	// MoveValidationAllowPRX is MoveValidationStrict except that prx gates
	// on the moved qubit are allowed inside a sandwich.
	MoveValidationAllowPRX MoveValidationMode = "allow_prx"
	// MoveValidationNone skips MOVE validation entirely.
	MoveValidationNone MoveValidationMode = "none"
)

// ValidateMoves checks the MOVE instructions of a circuit against the device
// and the occupancy rules: every MOVE must use a calibrated (qubit,
// resonator) locus, MOVEs must come in balanced pairs, no gate may act on a
// qubit whose state sits in a resonator, and every resonator must be empty
// again when the circuit ends. Barriers are exempt; mode allow_prx also
// exempts prx gates on the moved qubit. Mode none skips all checks.
// An empty mode defaults to strict.
func ValidateMoves(arch *qpu.DynamicArchitecture, c circuit.Circuit, mapping map[string]string, mode MoveValidationMode) error {
	switch mode {
	case MoveValidationNone:
		return nil
	case "":
		mode = MoveValidationStrict
	case MoveValidationStrict, MoveValidationAllowPRX:
	default:
		return errors.Errorf("unknown MOVE validation mode %q", mode)
	}

	tracker := NewTracker(arch)
	for i := range c.Instructions {
		in := c.Instructions[i]
		mapped := qpu.MapLocus(in.Locus, mapping)

		if in.Is(circuit.OpMove) {
			if err := qpu.ValidateInstruction(arch, in, mapping); err != nil {
				return errors.Wrapf(err, "instruction %d", i)
			}
			if err := tracker.ApplyMove(mapped[0], mapped[1]); err != nil {
				return errors.Wrapf(err, "instruction %d (%s %s)", i, in.Name, in.Locus)
			}
			continue
		}
		if in.Is(circuit.OpBarrier) {
			continue
		}
		if mode == MoveValidationAllowPRX && in.Is(circuit.OpPRX) {
			continue
		}
		for _, component := range mapped {
			if held := tracker.ResonatorsHolding(component); len(held) > 0 {
				return &circuit.ValidationError{
					Instruction: &c.Instructions[i],
					Reason: fmt.Sprintf("%s acts on qubit %s while its state is in resonator %s",
						circuit.CanonicalName(in.Name), component, held[0]),
				}
			}
		}
	}

	for _, r := range tracker.Resonators() {
		if q, ok := tracker.Occupant(r); ok {
			return &circuit.ValidationError{
				Reason: fmt.Sprintf("the state of qubit %s is left in resonator %s when the circuit ends", q, r),
			}
		}
	}
	return nil
}
