package transpile

// WarningKind classifies the non-fatal conditions a pass can report.
type WarningKind string

// WarningExistingMoves is reported when a circuit submitted for MOVE
// insertion already contains MOVE instructions and no policy for them was
// chosen. The pass falls back to removing them first.
const WarningExistingMoves WarningKind = "existing_moves"

// Warning is a non-fatal condition encountered during a pass. Warnings never
// abort the call; they are returned alongside the result.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return string(w.Kind) + ": " + w.Message
}
