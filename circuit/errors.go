package circuit

import "fmt"

// ValidationError reports a structural problem in a circuit or instruction,
// detected before any transformation or submission begins.
type ValidationError struct {
	// Instruction is the offending instruction, nil for circuit-level
	// problems.
	Instruction *Instruction
	// Reason is a human-readable cause.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Instruction != nil {
		return fmt.Sprintf("invalid instruction %s (%s): %s", e.Instruction.Name, e.Instruction.Locus, e.Reason)
	}
	return "invalid circuit: " + e.Reason
}

func validationErrorf(in *Instruction, format string, args ...any) *ValidationError {
	return &ValidationError{Instruction: in, Reason: fmt.Sprintf(format, args...)}
}
