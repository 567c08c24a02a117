// Package transpile rewrites circuits for star-topology devices where qubits
// interact through shared computational resonators. The insertion pass adds
// the MOVE instructions that shuttle qubit states in and out of resonators
// and retargets CZ loci onto them; the removal pass undoes the rewrite so a
// resonator-aware circuit can run through resonator-unaware tooling.
package transpile

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/jaskrrish/go-starq/circuit"
	"github.com/jaskrrish/go-starq/qpu"
)

// ResonatorStateTracker follows which qubit's state sits in which
// computational resonator during a linear scan of a circuit, and derives the
// MOVE instructions needed to shuttle states around. A tracker is built fresh
// per pass and is not safe for concurrent use.
type ResonatorStateTracker struct {
	// moveQubits maps each tracked resonator to the sorted qubits that have
	// a calibrated MOVE into it. A resonator with no calibrated MOVE is
	// still tracked, with an empty list.
	moveQubits map[string][]string
	// occupant maps each tracked resonator to the qubit whose state it
	// currently holds, "" when empty.
	occupant map[string]string
}

func newTracker() *ResonatorStateTracker {
	return &ResonatorStateTracker{
		moveQubits: make(map[string][]string),
		occupant:   make(map[string]string),
	}
}

// NewTracker builds a tracker from the architecture's MOVE calibration.
// Every computational resonator is tracked and starts out empty.
func NewTracker(arch *qpu.DynamicArchitecture) *ResonatorStateTracker {
	t := newTracker()
	for _, r := range arch.ComputationalResonators {
		t.track(r)
	}
	for _, locus := range arch.GateLoci(circuit.OpMove) {
		if len(locus) == 2 {
			t.addMove(locus[0], locus[1])
		}
	}
	t.sortMoveQubits()
	return t
}

// TrackerWithAssignments builds a tracker from the architecture with qubit
// states already sitting in resonators, as if the MOVEs placing them there
// had happened before the scan. Assignments map resonators to qubits and must
// respect the MOVE calibration and single occupancy.
func TrackerWithAssignments(arch *qpu.DynamicArchitecture, assignments map[string]string) (*ResonatorStateTracker, error) {
	t := NewTracker(arch)
	resonators := make([]string, 0, len(assignments))
	for r := range assignments {
		resonators = append(resonators, r)
	}
	sort.Strings(resonators)
	for _, r := range resonators {
		if err := t.ApplyMove(assignments[r], r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// TrackerFromCircuit builds a tracker from the circuit's own MOVE
// instructions, see TrackerFromInstructions.
func TrackerFromCircuit(c circuit.Circuit) (*ResonatorStateTracker, error) {
	return TrackerFromInstructions(c.Instructions)
}

// TrackerFromInstructions infers resonator connectivity from the MOVE
// instructions of the sequence and replays them in order. The returned
// tracker reflects the occupancy after the last instruction. Unbalanced
// MOVEs, entering an occupied resonator or exiting one the qubit's state is
// not in, fail with an error identifying the offending instruction.
func TrackerFromInstructions(instructions []circuit.Instruction) (*ResonatorStateTracker, error) {
	t := trackerFromMoves(instructions)
	for i, in := range instructions {
		if !in.Is(circuit.OpMove) {
			continue
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		if err := t.ApplyMove(in.Locus[0], in.Locus[1]); err != nil {
			return nil, errors.Wrapf(err, "instruction %d (%s %s)", i, in.Name, in.Locus)
		}
	}
	return t, nil
}

// trackerFromMoves builds an empty tracker whose connectivity is whatever the
// MOVE instructions of the sequence exercise.
func trackerFromMoves(instructions []circuit.Instruction) *ResonatorStateTracker {
	t := newTracker()
	for _, in := range instructions {
		if in.Is(circuit.OpMove) && len(in.Locus) == 2 {
			t.addMove(in.Locus[0], in.Locus[1])
		}
	}
	t.sortMoveQubits()
	return t
}

func (t *ResonatorStateTracker) track(resonator string) {
	if _, ok := t.moveQubits[resonator]; !ok {
		t.moveQubits[resonator] = nil
		t.occupant[resonator] = ""
	}
}

func (t *ResonatorStateTracker) addMove(qubit, resonator string) {
	t.track(resonator)
	if !containsString(t.moveQubits[resonator], qubit) {
		t.moveQubits[resonator] = append(t.moveQubits[resonator], qubit)
	}
}

func (t *ResonatorStateTracker) sortMoveQubits() {
	for _, qubits := range t.moveQubits {
		sort.Strings(qubits)
	}
}

// SupportsMove reports whether any MOVE is calibrated on the tracked device.
func (t *ResonatorStateTracker) SupportsMove() bool {
	for _, qubits := range t.moveQubits {
		if len(qubits) > 0 {
			return true
		}
	}
	return false
}

// Resonators returns the tracked resonators in sorted order.
func (t *ResonatorStateTracker) Resonators() []string {
	out := make([]string, 0, len(t.moveQubits))
	for r := range t.moveQubits {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Occupant returns the qubit whose state the resonator currently holds.
func (t *ResonatorStateTracker) Occupant(resonator string) (string, bool) {
	q := t.occupant[resonator]
	return q, q != ""
}

// ResonatorsHolding returns, in sorted order, the tracked resonators that
// currently hold the state of any of the given qubits.
func (t *ResonatorStateTracker) ResonatorsHolding(qubits ...string) []string {
	out := make([]string, 0)
	for r, occupant := range t.occupant {
		if occupant == "" {
			continue
		}
		for _, q := range qubits {
			if q == occupant {
				out = append(out, r)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// AvailableResonatorsFor returns, in sorted order, the resonators the qubit
// could move its state into right now: MOVE-adjacent and currently empty or
// already holding this qubit's state.
func (t *ResonatorStateTracker) AvailableResonatorsFor(qubit string) []string {
	out := make([]string, 0)
	for r, qubits := range t.moveQubits {
		if !containsString(qubits, qubit) {
			continue
		}
		if occupant := t.occupant[r]; occupant == "" || occupant == qubit {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// MovePair is a qubit/resonator pairing considered for a MOVE.
type MovePair struct {
	Qubit     string
	Resonator string
}

// ChooseMovePair ranks the (qubit, resonator) pairs that could make a
// 2-component instruction on the given qubits executable. Pairs whose
// resonator already holds the state of one of the qubits come first, then
// pairs whose resonator fewer other qubits can move into, then lexicographic
// qubit name, then lexicographic resonator name. The ranking is fully
// deterministic. A routing error is returned when no candidate exists.
func (t *ResonatorStateTracker) ChooseMovePair(qubits []string) ([]MovePair, error) {
	candidates := make([]MovePair, 0)
	for _, q := range qubits {
		for _, r := range t.AvailableResonatorsFor(q) {
			candidates = append(candidates, MovePair{Qubit: q, Resonator: r})
		}
	}
	if len(candidates) == 0 {
		locus := make(circuit.Locus, len(qubits))
		copy(locus, qubits)
		return nil, &RoutingError{Locus: locus}
	}
	holdsInvolved := func(p MovePair) bool {
		occupant := t.occupant[p.Resonator]
		return occupant != "" && containsString(qubits, occupant)
	}
	alternatives := func(p MovePair) int {
		n := 0
		for _, q := range t.moveQubits[p.Resonator] {
			if q != p.Qubit {
				n++
			}
		}
		return n
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ha, hb := holdsInvolved(a), holdsInvolved(b); ha != hb {
			return ha
		}
		if na, nb := alternatives(a), alternatives(b); na != nb {
			return na < nb
		}
		if a.Qubit != b.Qubit {
			return a.Qubit < b.Qubit
		}
		return a.Resonator < b.Resonator
	})
	return candidates, nil
}

// ApplyMove records the effect of a MOVE between qubit and resonator: an
// empty resonator is entered, a resonator holding this qubit's state is
// exited. Anything else violates the occupancy rules and returns a
// StateError without changing the tracker.
func (t *ResonatorStateTracker) ApplyMove(qubit, resonator string) error {
	current, tracked := t.occupant[resonator]
	if !tracked {
		return &StateError{Qubit: qubit, Resonator: resonator, Reason: "unknown resonator"}
	}
	if !containsString(t.moveQubits[resonator], qubit) {
		return &StateError{Qubit: qubit, Resonator: resonator, Reason: "no MOVE is calibrated for this pair"}
	}
	switch current {
	case "":
		if held := t.ResonatorsHolding(qubit); len(held) > 0 {
			return &StateError{
				Qubit:     qubit,
				Resonator: resonator,
				Reason:    fmt.Sprintf("the qubit state is already in resonator %s", held[0]),
			}
		}
		t.occupant[resonator] = qubit
	case qubit:
		t.occupant[resonator] = ""
	default:
		return &StateError{
			Qubit:     qubit,
			Resonator: resonator,
			Occupant:  current,
			Reason:    "the resonator holds another qubit state",
		}
	}
	return nil
}

// CreateMoveInstructions returns the MOVE instructions that put the qubit's
// state into the resonator, evicting a different current occupant first, and
// applies them to the tracker. One instruction is returned when the resonator
// is empty, two when an occupant has to leave. names optionally rewrites the
// emitted components, mapping physical names back to the circuit's own.
func (t *ResonatorStateTracker) CreateMoveInstructions(qubit, resonator string, names map[string]string) ([]circuit.Instruction, error) {
	out := make([]circuit.Instruction, 0, 2)
	if current := t.occupant[resonator]; current != "" && current != qubit {
		if err := t.ApplyMove(current, resonator); err != nil {
			return nil, err
		}
		out = append(out, moveInstruction(current, resonator, names))
	}
	if err := t.ApplyMove(qubit, resonator); err != nil {
		return nil, err
	}
	return append(out, moveInstruction(qubit, resonator, names)), nil
}

// ResetAsMoveInstructions returns the MOVE instructions that return the
// occupants of the given resonators to their qubits, and applies them to the
// tracker. With no resonators given, all tracked resonators are reset.
// Resonators are processed in sorted order; empty ones produce nothing.
func (t *ResonatorStateTracker) ResetAsMoveInstructions(names map[string]string, resonators ...string) []circuit.Instruction {
	if len(resonators) == 0 {
		resonators = t.Resonators()
	} else {
		resonators = append([]string(nil), resonators...)
		sort.Strings(resonators)
	}
	out := make([]circuit.Instruction, 0)
	for _, r := range resonators {
		q := t.occupant[r]
		if q == "" {
			continue
		}
		// exiting the current occupant cannot fail
		moves, _ := t.CreateMoveInstructions(q, r, names)
		out = append(out, moves...)
	}
	return out
}

// ResolveLocus rewrites tracked-resonator components of a locus to the qubits
// whose states currently occupy them. Other components pass through. A locus
// referencing an empty tracked resonator cannot be resolved.
func (t *ResonatorStateTracker) ResolveLocus(locus circuit.Locus) (circuit.Locus, error) {
	out := make(circuit.Locus, len(locus))
	for i, component := range locus {
		occupant, tracked := t.occupant[component]
		if !tracked {
			out[i] = component
			continue
		}
		if occupant == "" {
			return nil, &circuit.ValidationError{
				Reason: fmt.Sprintf("locus (%s) references resonator %s while it holds no qubit state", locus, component),
			}
		}
		out[i] = occupant
	}
	return out, nil
}

func moveInstruction(qubit, resonator string, names map[string]string) circuit.Instruction {
	return circuit.Instruction{
		Name:  circuit.OpMove,
		Locus: circuit.Locus{renamed(qubit, names), renamed(resonator, names)},
		Args:  circuit.Args{},
	}
}

func renamed(component string, names map[string]string) string {
	if names != nil {
		if alt, ok := names[component]; ok {
			return alt
		}
	}
	return component
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
