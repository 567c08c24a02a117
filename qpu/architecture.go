// Package qpu describes the gate set of a quantum processing unit as reported
// by the service for one calibration set, and validates instructions against
// it.
package qpu

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jaskrrish/go-starq/circuit"
)

// GateImplementationInfo describes one calibrated implementation of a gate.
type GateImplementationInfo struct {
	// Loci lists the component tuples this implementation is calibrated for.
	Loci []circuit.Locus `json:"loci"`
}

// GateInfo describes a gate for which calibration data exists.
type GateInfo struct {
	// Implementations maps implementation names to their calibrated loci.
	Implementations map[string]GateImplementationInfo `json:"implementations"`
	// DefaultImplementation is used unless overridden per locus or pinned
	// on the instruction itself.
	DefaultImplementation string `json:"default_implementation"`
	// OverrideDefaultImplementation maps comma-joined loci to implementation
	// names overriding the default for those loci.
	OverrideDefaultImplementation map[string]string `json:"override_default_implementation,omitempty"`
}

// Loci returns the union of calibrated loci over all implementations.
// Implementations are walked in sorted name order so the result is stable.
func (g GateInfo) Loci() []circuit.Locus {
	names := make([]string, 0, len(g.Implementations))
	for name := range g.Implementations {
		names = append(names, name)
	}
	sort.Strings(names)
	seen := make(map[string]bool)
	out := make([]circuit.Locus, 0)
	for _, name := range names {
		for _, locus := range g.Implementations[name].Loci {
			key := locus.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, locus.Clone())
		}
	}
	return out
}

// DynamicArchitecture is the dynamic architecture of a quantum computer: the
// components and gates for which calibration data exists in one calibration
// set. It is immutable after construction and safe to share across concurrent
// transpilation calls.
type DynamicArchitecture struct {
	// CalibrationSetID identifies the calibration set this architecture was
	// generated from.
	CalibrationSetID uuid.UUID `json:"calibration_set_id"`
	// Qubits lists the qubits that appear in at least one gate locus.
	Qubits []string `json:"qubits"`
	// ComputationalResonators lists the resonators that appear in at least
	// one gate locus.
	ComputationalResonators []string `json:"computational_resonators"`
	// Gates maps gate names to their calibration info.
	Gates map[string]GateInfo `json:"gates"`
}

// Components returns all components of the device, qubits first, in
// declaration order.
func (a *DynamicArchitecture) Components() []string {
	out := make([]string, 0, len(a.Qubits)+len(a.ComputationalResonators))
	out = append(out, a.Qubits...)
	out = append(out, a.ComputationalResonators...)
	return out
}

// HasComponent reports whether the named component exists on the device.
func (a *DynamicArchitecture) HasComponent(name string) bool {
	for _, q := range a.Qubits {
		if q == name {
			return true
		}
	}
	return a.IsResonator(name)
}

// IsResonator reports whether the named component is a computational
// resonator.
func (a *DynamicArchitecture) IsResonator(name string) bool {
	for _, r := range a.ComputationalResonators {
		if r == name {
			return true
		}
	}
	return false
}

// GateLoci returns the union of calibrated loci for the named gate, empty
// when the gate has no calibration data. Deprecated gate names are resolved
// to their canonical form.
func (a *DynamicArchitecture) GateLoci(gate string) []circuit.Locus {
	info, ok := a.Gates[circuit.CanonicalName(gate)]
	if !ok {
		return nil
	}
	return info.Loci()
}

// Connected reports whether a direct 2-component operation between a and b is
// calibrated, in either direction, for any gate.
func (a *DynamicArchitecture) Connected(first, second string) bool {
	for gate := range a.Gates {
		for _, locus := range a.GateLoci(gate) {
			if len(locus) != 2 {
				continue
			}
			if (locus[0] == first && locus[1] == second) || (locus[0] == second && locus[1] == first) {
				return true
			}
		}
	}
	return false
}

// ResonatorsAdjacentTo returns the sorted resonators a MOVE could place the
// given qubit's state into.
func (a *DynamicArchitecture) ResonatorsAdjacentTo(qubit string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, locus := range a.GateLoci(circuit.OpMove) {
		if len(locus) == 2 && locus[0] == qubit && !seen[locus[1]] {
			seen[locus[1]] = true
			out = append(out, locus[1])
		}
	}
	sort.Strings(out)
	return out
}

// SupportsMove reports whether the device has any calibrated MOVE locus.
func (a *DynamicArchitecture) SupportsMove() bool {
	return len(a.GateLoci(circuit.OpMove)) > 0
}

// Validate checks the architecture's structural invariants: every locus
// component is declared, MOVE loci are (qubit, resonator) pairs, and every
// resonator used by a 2-component gate is reachable via at least one MOVE
// locus.
func (a *DynamicArchitecture) Validate() error {
	gates := make([]string, 0, len(a.Gates))
	for gate := range a.Gates {
		gates = append(gates, gate)
	}
	sort.Strings(gates)

	reachable := make(map[string]bool)
	for _, locus := range a.GateLoci(circuit.OpMove) {
		if len(locus) != 2 || a.IsResonator(locus[0]) || !a.IsResonator(locus[1]) {
			return errors.Errorf("architecture: MOVE locus (%s) is not a (qubit, resonator) pair", locus)
		}
		reachable[locus[1]] = true
	}

	for _, gate := range gates {
		for _, locus := range a.GateLoci(gate) {
			for _, component := range locus {
				if !a.HasComponent(component) {
					return errors.Errorf("architecture: component %s in a locus of %s is not declared", component, gate)
				}
			}
			if gate == circuit.OpMove || len(locus) != 2 {
				continue
			}
			for _, component := range locus {
				if a.IsResonator(component) && !reachable[component] {
					return errors.Errorf("architecture: resonator %s is used by %s but no MOVE locus reaches it", component, gate)
				}
			}
		}
	}
	return nil
}
