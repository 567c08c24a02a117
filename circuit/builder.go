package circuit

// Builder accumulates instructions for a circuit. The first construction
// error is remembered and returned by Build, so calls can be chained without
// checking errors at every step.
type Builder struct {
	name         string
	instructions []Instruction
	metadata     map[string]any
	err          error
}

// NewBuilder creates a builder for a circuit with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:         name,
		instructions: make([]Instruction, 0),
	}
}

func (b *Builder) add(name string, locus Locus, args Args) *Builder {
	if b.err != nil {
		return b
	}
	in, err := NewInstruction(name, locus, args)
	if err != nil {
		b.err = err
		return b
	}
	b.instructions = append(b.instructions, in)
	return b
}

// PRX appends a phased x-rotation on one qubit with the given angle and
// phase, both in full turns.
func (b *Builder) PRX(qubit string, angle, phase float64) *Builder {
	return b.add(OpPRX, Locus{qubit}, Args{"angle_t": angle, "phase_t": phase})
}

// CZ appends a controlled-Z between two components.
func (b *Builder) CZ(first, second string) *Builder {
	return b.add(OpCZ, Locus{first, second}, nil)
}

// Move appends a state transfer between a qubit and a resonator.
func (b *Builder) Move(qubit, resonator string) *Builder {
	return b.add(OpMove, Locus{qubit, resonator}, nil)
}

// Barrier appends an execution-order barrier across the given components.
func (b *Builder) Barrier(components ...string) *Builder {
	return b.add(OpBarrier, Locus(components), nil)
}

// Measure appends a measurement of the given components, labelling the
// results with key.
func (b *Builder) Measure(key string, components ...string) *Builder {
	return b.add(OpMeasure, Locus(components), Args{"key": key})
}

// Metadata attaches a metadata entry to the circuit.
func (b *Builder) Metadata(key string, value any) *Builder {
	if b.metadata == nil {
		b.metadata = make(map[string]any)
	}
	b.metadata[key] = value
	return b
}

// Build validates and returns the accumulated circuit.
func (b *Builder) Build() (Circuit, error) {
	if b.err != nil {
		return Circuit{}, b.err
	}
	c := Circuit{
		Name:         b.name,
		Instructions: b.instructions,
		Metadata:     b.metadata,
	}
	if err := c.Validate(); err != nil {
		return Circuit{}, err
	}
	return c, nil
}
