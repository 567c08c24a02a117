package qpu

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jaskrrish/go-starq/circuit"
)

// MapLocus rewrites locus components through a logical-to-physical name
// mapping. Components without a mapping entry pass through unchanged; a nil
// mapping is the identity.
func MapLocus(locus circuit.Locus, mapping map[string]string) circuit.Locus {
	out := make(circuit.Locus, len(locus))
	for i, component := range locus {
		if physical, ok := mapping[component]; ok {
			out[i] = physical
		} else {
			out[i] = component
		}
	}
	return out
}

// ValidateInstruction checks that an instruction can execute on the device:
// structural validity, every mapped locus component exists, the operation has
// calibration data, and the mapped locus is allowed under the operation's
// locus-check mode. The mapping translates logical to physical names and may
// be nil when the instruction already uses physical names.
func ValidateInstruction(arch *DynamicArchitecture, in circuit.Instruction, mapping map[string]string) error {
	if err := in.Validate(); err != nil {
		return err
	}
	name := circuit.CanonicalName(in.Name)
	mapped := MapLocus(in.Locus, mapping)
	for _, component := range mapped {
		if !arch.HasComponent(component) {
			return &circuit.ValidationError{
				Instruction: &in,
				Reason:      fmt.Sprintf("component %s is not part of the device", component),
			}
		}
	}

	mode, _ := circuit.LocusModeFor(name)
	if mode == circuit.LocusUnchecked {
		return nil
	}
	loci := arch.GateLoci(name)
	if len(loci) == 0 {
		return &circuit.ValidationError{
			Instruction: &in,
			Reason:      fmt.Sprintf("operation %s is not calibrated on the device", name),
		}
	}

	switch mode {
	case circuit.LocusAnyCombination:
		allowed := make(map[string]bool)
		for _, locus := range loci {
			for _, component := range locus {
				allowed[component] = true
			}
		}
		for _, component := range mapped {
			if !allowed[component] {
				return &circuit.ValidationError{
					Instruction: &in,
					Reason:      fmt.Sprintf("component %s is not calibrated for %s", component, name),
				}
			}
		}
	case circuit.LocusUnordered:
		if !lociContain(loci, mapped) && !lociContain(loci, reversed(mapped)) {
			return lociError(&in, name, mapped)
		}
	default:
		if !lociContain(loci, mapped) {
			return lociError(&in, name, mapped)
		}
	}
	return nil
}

// ValidateCircuit checks a whole circuit against the device: circuit-level
// structure first, then every instruction. It aborts on the first violation.
func ValidateCircuit(arch *DynamicArchitecture, c circuit.Circuit, mapping map[string]string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for i, in := range c.Instructions {
		if err := ValidateInstruction(arch, in, mapping); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}
	return nil
}

func lociContain(loci []circuit.Locus, locus circuit.Locus) bool {
	for _, candidate := range loci {
		if len(candidate) != len(locus) {
			continue
		}
		match := true
		for i := range candidate {
			if candidate[i] != locus[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func reversed(locus circuit.Locus) circuit.Locus {
	out := make(circuit.Locus, len(locus))
	for i, component := range locus {
		out[len(locus)-1-i] = component
	}
	return out
}

func lociError(in *circuit.Instruction, name string, mapped circuit.Locus) error {
	return &circuit.ValidationError{
		Instruction: in,
		Reason:      fmt.Sprintf("locus (%s) is not calibrated for %s", mapped, name),
	}
}
