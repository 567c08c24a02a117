// Package circuit models quantum circuits as ordered instruction sequences
// using the wire format of the remote quantum computer service.
package circuit

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Locus is the ordered tuple of component identifiers an instruction acts on:
// one component for single-qubit operations, two for operations like CZ or
// MOVE. Component identifiers are opaque strings naming a physical qubit or
// computational resonator.
type Locus []string

// String renders the locus for error messages and logs.
func (l Locus) String() string {
	return strings.Join(l, ", ")
}

// Contains reports whether the locus includes the given component.
func (l Locus) Contains(component string) bool {
	for _, c := range l {
		if c == component {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the locus.
func (l Locus) Clone() Locus {
	if l == nil {
		return nil
	}
	out := make(Locus, len(l))
	copy(out, l)
	return out
}

// Args holds the classical arguments of an instruction, keyed by argument name.
type Args map[string]any

// Instruction is a single quantum operation acting on a locus of components.
// Instructions are treated as immutable once constructed; transformation
// passes build new values instead of mutating existing ones.
//
// A "move" instruction always has a 2-component locus: the first element is a
// qubit, the second a computational resonator.
type Instruction struct {
	// Name identifies the operation. Deprecated aliases are accepted and
	// resolved to their canonical form, see CanonicalName.
	Name string `json:"name"`
	// Locus lists the components the operation acts on. The wire field is
	// named "qubits" for historical reasons even though resonators may
	// appear in it.
	Locus Locus `json:"qubits"`
	// Args carries the classical arguments, e.g. the "key" of a measure.
	Args Args `json:"args"`
	// Implementation optionally pins a calibrated gate implementation
	// instead of the device default.
	Implementation string `json:"implementation,omitempty"`
}

// NewInstruction builds a validated instruction. Deprecated operation names
// are rewritten to their canonical form and a nil args map is normalized to
// an empty one.
func NewInstruction(name string, locus Locus, args Args) (Instruction, error) {
	in := Instruction{
		Name:  CanonicalName(name),
		Locus: locus.Clone(),
		Args:  args,
	}
	if in.Args == nil {
		in.Args = Args{}
	}
	if err := in.Validate(); err != nil {
		return Instruction{}, err
	}
	return in, nil
}

// Is reports whether the instruction's canonical name matches name.
func (in Instruction) Is(name string) bool {
	return CanonicalName(in.Name) == CanonicalName(name)
}

// Circuit is an ordered sequence of instructions executed as one program on a
// quantum computer.
type Circuit struct {
	Name         string         `json:"name"`
	Instructions []Instruction  `json:"instructions"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// AllQubits returns the sorted set of component identifiers referenced by the
// circuit's instructions.
func (c Circuit) AllQubits() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, in := range c.Instructions {
		for _, component := range in.Locus {
			if !seen[component] {
				seen[component] = true
				out = append(out, component)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks the circuit structurally: a non-empty name, at least one
// instruction, every instruction valid on its own, and measurement keys
// unique across the whole circuit.
func (c Circuit) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Reason: "circuit name must be a non-empty string"}
	}
	if len(c.Instructions) == 0 {
		return &ValidationError{Reason: "circuit contains no instructions"}
	}
	keys := make(map[string]bool)
	for i, in := range c.Instructions {
		if err := in.Validate(); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
		if in.Is(OpMeasure) {
			key, _ := in.Args["key"].(string)
			if keys[key] {
				return validationErrorf(&c.Instructions[i], "measurement key %q is not unique in the circuit", key)
			}
			keys[key] = true
		}
	}
	return nil
}
