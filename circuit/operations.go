package circuit

import "sort"

// Canonical names of the operations natively executable on star-topology
// quantum computers.
const (
	// OpBarrier forces the order of execution across its components.
	OpBarrier = "barrier"
	// OpCZ is the controlled-Z gate, the native two-component gate.
	OpCZ = "cz"
	// OpMeasure is a projective measurement, tagged with a result key.
	OpMeasure = "measure"
	// OpMove transfers a qubit's state into or out of a resonator.
	OpMove = "move"
	// OpPRX is the phased x-rotation, the native single-qubit gate.
	OpPRX = "prx"
)

// LocusMode tells how an operation's locus is checked against the calibrated
// loci of a device.
type LocusMode int

const (
	// LocusExact requires the locus to match a calibrated locus in order.
	LocusExact LocusMode = iota
	// LocusUnordered accepts a calibrated locus in either direction.
	LocusUnordered
	// LocusAnyCombination accepts any components that each appear in some
	// calibrated locus of the operation.
	LocusAnyCombination
	// LocusUnchecked skips the calibrated-loci check entirely.
	LocusUnchecked
)

// argKind constrains the runtime type of an instruction argument.
type argKind int

const (
	argFloat argKind = iota
	argString
)

func (k argKind) String() string {
	if k == argString {
		return "string"
	}
	return "number"
}

// accepts reports whether a value satisfies the argument kind. Numbers accept
// both JSON-decoded float64 values and literal Go integers.
func (k argKind) accepts(value any) bool {
	switch k {
	case argString:
		_, ok := value.(string)
		return ok
	case argFloat:
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
	}
	return false
}

// operationSpec fixes the shape every instruction of a given name must have.
type operationSpec struct {
	// arity is the required locus length, -1 for one or more components.
	arity     int
	locusMode LocusMode
	// args maps required argument names to their kinds. No other arguments
	// are accepted.
	args map[string]argKind
}

var operations = map[string]operationSpec{
	OpBarrier: {arity: -1, locusMode: LocusUnchecked},
	OpCZ:      {arity: 2, locusMode: LocusUnordered},
	OpMove:    {arity: 2, locusMode: LocusExact},
	OpMeasure: {arity: -1, locusMode: LocusAnyCombination, args: map[string]argKind{"key": argString}},
	OpPRX:     {arity: 1, locusMode: LocusExact, args: map[string]argKind{"angle_t": argFloat, "phase_t": argFloat}},
}

// deprecatedNames maps legacy operation names still accepted on the wire to
// their canonical form.
var deprecatedNames = map[string]string{
	"measurement": OpMeasure,
	"phased_rx":   OpPRX,
}

// CanonicalName resolves deprecated operation aliases, returning the name
// unchanged when it is not an alias.
func CanonicalName(name string) string {
	if canonical, ok := deprecatedNames[name]; ok {
		return canonical
	}
	return name
}

// SupportedOperations lists the canonical operation names in sorted order.
func SupportedOperations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LocusModeFor returns the locus-check mode of an operation, with ok false
// for unknown operation names.
func LocusModeFor(name string) (LocusMode, bool) {
	spec, ok := operations[CanonicalName(name)]
	return spec.locusMode, ok
}

// Validate checks the instruction against the operation table: known name,
// locus arity, distinct non-empty components, and argument names and types.
func (in Instruction) Validate() error {
	spec, ok := operations[CanonicalName(in.Name)]
	if !ok {
		return validationErrorf(&in, "unknown operation %q", in.Name)
	}
	if len(in.Locus) == 0 {
		return validationErrorf(&in, "locus is empty")
	}
	if spec.arity >= 0 && len(in.Locus) != spec.arity {
		return validationErrorf(&in, "operation %s takes %d components, got %d", CanonicalName(in.Name), spec.arity, len(in.Locus))
	}
	seen := make(map[string]bool, len(in.Locus))
	for _, component := range in.Locus {
		if component == "" {
			return validationErrorf(&in, "locus contains an empty component name")
		}
		if seen[component] {
			return validationErrorf(&in, "component %s appears more than once in the locus", component)
		}
		seen[component] = true
	}
	for name, kind := range spec.args {
		value, ok := in.Args[name]
		if !ok {
			return validationErrorf(&in, "missing argument %q", name)
		}
		if !kind.accepts(value) {
			return validationErrorf(&in, "argument %q must be a %s", name, kind)
		}
	}
	for name := range in.Args {
		if _, ok := spec.args[name]; !ok {
			return validationErrorf(&in, "unexpected argument %q", name)
		}
	}
	return nil
}
