package transpile

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jaskrrish/go-starq/circuit"
)

// RemoveMoves strips all MOVE instructions from a circuit and rewrites the
// loci of the remaining instructions so that gates applied to a resonator act
// on the qubit whose state it was holding. The pass needs no architecture:
// connectivity is inferred from the MOVEs themselves. The input circuit is
// not mutated.
//
// Removal fails when the MOVEs are unbalanced or when an instruction
// references a resonator that holds no qubit state at that point.
func RemoveMoves(c circuit.Circuit) (circuit.Circuit, error) {
	tracker := trackerFromMoves(c.Instructions)
	out := make([]circuit.Instruction, 0, len(c.Instructions))
	for i, in := range c.Instructions {
		if in.Is(circuit.OpMove) {
			if err := in.Validate(); err != nil {
				return circuit.Circuit{}, errors.Wrapf(err, "instruction %d", i)
			}
			if err := tracker.ApplyMove(in.Locus[0], in.Locus[1]); err != nil {
				return circuit.Circuit{}, errors.Wrapf(err, "instruction %d (%s %s)", i, in.Name, in.Locus)
			}
			continue
		}
		locus, err := tracker.ResolveLocus(in.Locus)
		if err != nil {
			return circuit.Circuit{}, errors.Wrapf(err, "instruction %d", i)
		}
		out = append(out, circuit.Instruction{
			Name:           in.Name,
			Locus:          locus,
			Args:           in.Args,
			Implementation: in.Implementation,
		})
	}
	log.WithFields(log.Fields{
		"circuit":          c.Name,
		"instructions_in":  len(c.Instructions),
		"instructions_out": len(out),
	}).Debug("removed MOVE instructions")
	return circuit.Circuit{Name: c.Name, Instructions: out, Metadata: c.Metadata}, nil
}
