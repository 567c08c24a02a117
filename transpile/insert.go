package transpile

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jaskrrish/go-starq/circuit"
	"github.com/jaskrrish/go-starq/qpu"
)

// ExistingMovePolicy tells InsertMoves what to do with MOVE instructions
// already present in the input circuit.
type ExistingMovePolicy string

const (
	// MovePolicyUnset lets the pass decide. Circuits that contain MOVEs are
	// handled as MovePolicyRemove and a warning is reported.
	MovePolicyUnset ExistingMovePolicy = ""
	// MovePolicyKeep validates the existing MOVEs and builds on top of them.
	MovePolicyKeep ExistingMovePolicy = "keep"
	// MovePolicyRemove strips the existing MOVEs and derives them anew.
	MovePolicyRemove ExistingMovePolicy = "remove"
	// MovePolicyError rejects circuits that contain MOVE instructions.
	MovePolicyError ExistingMovePolicy = "error"
)

// InsertOptions adjusts the MOVE insertion pass. The zero value is a valid
// default.
type InsertOptions struct {
	// QubitMapping maps the circuit's logical qubit names to physical
	// component names. Physical components not used as targets are mapped
	// to themselves.
	QubitMapping map[string]string
	// ExistingMoves picks the policy for MOVE instructions already present
	// in the circuit.
	ExistingMoves ExistingMovePolicy
	// MoveValidation picks how strictly existing MOVEs are checked under
	// MovePolicyKeep. Defaults to MoveValidationStrict.
	MoveValidation MoveValidationMode
}

// InsertMoves rewrites a circuit for a device where some qubit pairs interact
// through a shared computational resonator. CZ instructions between such
// pairs are retargeted onto (qubit, resonator) loci and the MOVE instructions
// shuttling the other qubit's state in and out of the resonator are inserted
// around them. Every resonator is returned to its ground state before the
// circuit ends.
//
// The circuit must already be routed for the abstracted connectivity graph in
// which resonator-mediated pairs look directly connected. The input circuit
// is not mutated. Non-fatal conditions are reported as warnings next to the
// result. On a device with no calibrated MOVE the circuit is returned as is.
func InsertMoves(c circuit.Circuit, arch *qpu.DynamicArchitecture, opts *InsertOptions) (circuit.Circuit, []Warning, error) {
	if opts == nil {
		opts = &InsertOptions{}
	}
	if err := c.Validate(); err != nil {
		return circuit.Circuit{}, nil, err
	}
	mapping, err := fillMapping(opts.QubitMapping, arch)
	if err != nil {
		return circuit.Circuit{}, nil, err
	}

	var warnings []Warning
	policy := opts.ExistingMoves
	existing := countMoves(c)

	if policy == MovePolicyUnset && existing > 0 {
		w := Warning{
			Kind:    WarningExistingMoves,
			Message: "circuit already contains MOVE instructions, removing them before transpiling",
		}
		warnings = append(warnings, w)
		log.WithField("circuit", c.Name).Warn(w.Message)
		policy = MovePolicyRemove
	}
	if policy == MovePolicyError && existing > 0 {
		return circuit.Circuit{}, warnings, &circuit.ValidationError{Reason: "circuit contains MOVE instructions"}
	}

	tracker := NewTracker(arch)
	if !tracker.SupportsMove() {
		if existing == 0 {
			return c, warnings, nil
		}
		if policy == MovePolicyRemove {
			out, err := RemoveMoves(c)
			return out, warnings, err
		}
		return circuit.Circuit{}, warnings, &circuit.ValidationError{
			Reason: "circuit contains MOVE instructions but the device has no MOVE calibration",
		}
	}

	switch policy {
	case MovePolicyKeep:
		if err := ValidateMoves(arch, c, mapping, opts.MoveValidation); err != nil {
			return circuit.Circuit{}, warnings, errors.Wrap(err, "existing MOVE instructions failed validation")
		}
	default:
		if c, err = RemoveMoves(c); err != nil {
			return circuit.Circuit{}, warnings, err
		}
	}

	out, err := insertInstructions(c.Instructions, tracker, arch, mapping)
	if err != nil {
		return circuit.Circuit{}, warnings, err
	}
	out = append(out, tracker.ResetAsMoveInstructions(reverseMapping(mapping))...)

	log.WithFields(log.Fields{
		"circuit":          c.Name,
		"instructions_in":  len(c.Instructions),
		"instructions_out": len(out),
	}).Debug("inserted MOVE instructions")

	return circuit.Circuit{Name: c.Name, Instructions: out, Metadata: c.Metadata}, warnings, nil
}

// insertInstructions runs the single linear scan of the insertion pass,
// returning the rewritten instruction sequence. The tracker is left holding
// the occupancy after the last instruction.
func insertInstructions(instructions []circuit.Instruction, tracker *ResonatorStateTracker, arch *qpu.DynamicArchitecture, mapping map[string]string) ([]circuit.Instruction, error) {
	rev := reverseMapping(mapping)
	out := make([]circuit.Instruction, 0, len(instructions))
	for i, in := range instructions {
		mapped := qpu.MapLocus(in.Locus, mapping)
		resMatch := tracker.ResonatorsHolding(mapped...)

		if len(resMatch) > 0 && !in.Is(circuit.OpCZ) && !in.Is(circuit.OpMove) {
			// the instruction acts on a qubit whose state sits in a
			// resonator, bring the state home first
			out = append(out, tracker.ResetAsMoveInstructions(rev, resMatch...)...)
			out = append(out, in)
			continue
		}

		err := qpu.ValidateInstruction(arch, in, mapping)
		if err == nil {
			out = append(out, in)
			if in.Is(circuit.OpMove) {
				if err := tracker.ApplyMove(mapped[0], mapped[1]); err != nil {
					return nil, errors.Wrapf(err, "instruction %d (%s %s)", i, in.Name, in.Locus)
				}
			}
			continue
		}
		if !in.Is(circuit.OpCZ) {
			return nil, errors.Wrapf(err, "instruction %d cannot be made executable by MOVE insertion", i)
		}

		fixed, err := rerouteCZ(in, mapped, resMatch, tracker, arch, rev)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}
		out = append(out, fixed...)
	}
	return out, nil
}

// rerouteCZ makes an uncalibrated CZ executable by moving the state of one
// involved qubit into a resonator the other qubit is coupled to, then
// retargeting the CZ onto the (qubit, resonator) locus.
func rerouteCZ(in circuit.Instruction, mapped circuit.Locus, resMatch []string, tracker *ResonatorStateTracker, arch *qpu.DynamicArchitecture, rev map[string]string) ([]circuit.Instruction, error) {
	// when some involved state already sits in a resonator, only those
	// states are considered for moving, otherwise either qubit is
	pool := []string(mapped)
	if len(resMatch) > 0 {
		pool = make([]string, 0, len(resMatch))
		for _, r := range resMatch {
			if q, ok := tracker.Occupant(r); ok {
				pool = append(pool, q)
			}
		}
	}
	candidates, err := tracker.ChooseMovePair(pool)
	if err != nil {
		return nil, err
	}

	var chosen *MovePair
	var partner string
	for i := range candidates {
		other := partnerOf(mapped, candidates[i].Qubit)
		cz := circuit.Instruction{
			Name:  circuit.OpCZ,
			Locus: circuit.Locus{other, candidates[i].Resonator},
			Args:  circuit.Args{},
		}
		if qpu.ValidateInstruction(arch, cz, nil) == nil {
			chosen = &candidates[i]
			partner = other
			break
		}
	}
	if chosen == nil {
		return nil, &RoutingError{Locus: in.Locus.Clone()}
	}

	out := make([]circuit.Instruction, 0, 4)
	stale := make([]string, 0, len(resMatch))
	for _, r := range resMatch {
		if r != chosen.Resonator {
			stale = append(stale, r)
		}
	}
	if len(stale) > 0 {
		out = append(out, tracker.ResetAsMoveInstructions(rev, stale...)...)
	}
	if occupant, _ := tracker.Occupant(chosen.Resonator); occupant != chosen.Qubit {
		moves, err := tracker.CreateMoveInstructions(chosen.Qubit, chosen.Resonator, rev)
		if err != nil {
			return nil, err
		}
		out = append(out, moves...)
	}
	return append(out, circuit.Instruction{
		Name:  circuit.OpCZ,
		Locus: circuit.Locus{renamed(partner, rev), renamed(chosen.Resonator, rev)},
		Args:  circuit.Args{},
	}), nil
}

// partnerOf returns the component of the locus that is not the given qubit.
func partnerOf(mapped circuit.Locus, qubit string) string {
	for _, q := range mapped {
		if q != qubit {
			return q
		}
	}
	return qubit
}

// fillMapping completes a logical-to-physical mapping with identity entries
// for the physical components not used as targets, and rejects mappings where
// two logical names share a physical component.
func fillMapping(user map[string]string, arch *qpu.DynamicArchitecture) (map[string]string, error) {
	mapping := make(map[string]string, len(user))
	targets := make(map[string]string, len(user))
	for logical, physical := range user {
		if other, clash := targets[physical]; clash {
			first, second := logical, other
			if second < first {
				first, second = second, first
			}
			return nil, errors.Errorf("qubit mapping is not injective: %s and %s both map to %s", first, second, physical)
		}
		targets[physical] = logical
		mapping[logical] = physical
	}
	for _, component := range arch.Components() {
		if _, used := targets[component]; used {
			continue
		}
		if _, exists := mapping[component]; !exists {
			mapping[component] = component
		}
	}
	return mapping, nil
}

func reverseMapping(mapping map[string]string) map[string]string {
	rev := make(map[string]string, len(mapping))
	for logical, physical := range mapping {
		rev[physical] = logical
	}
	return rev
}

func countMoves(c circuit.Circuit) int {
	n := 0
	for _, in := range c.Instructions {
		if in.Is(circuit.OpMove) {
			n++
		}
	}
	return n
}
