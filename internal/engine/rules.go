package engine

import "github.com/roach88/lookahead/internal/ir"

// Position is an opaque game position owned by the rules engine.
type Position any

// Move is an opaque move owned by the rules engine.
type Move any

// Threat describes decisive captures available around a position, seen from
// the side to move.
type Threat struct {
	// CanCapture is set when the side to move can take the opposing general
	// with its next move.
	CanCapture bool

	// Exposed is set when the opponent could take the side to move's general
	// with its next move.
	Exposed bool
}

// Rules is the move-generation and evaluation collaborator.
//
// Implementations must be deterministic: the same position and side always
// yield the same moves in the same order. Resumed runs depend on it.
type Rules interface {
	// LegalMoves lists the candidate moves for side in pos.
	LegalMoves(pos Position, side ir.Side) ([]Move, error)

	// Apply returns the position reached by playing m in pos.
	Apply(pos Position, m Move) (Position, error)

	// Evaluate returns the decisive winner (or ir.NoSide) and a side-A
	// positive score.
	Evaluate(pos Position) (ir.Side, float64, error)

	// Fingerprint returns the canonical identity of pos.
	Fingerprint(pos Position) string

	// Position rebuilds a position from its fingerprint.
	Position(fingerprint string) (Position, error)

	// Threats reports decisive captures for side to move in pos.
	Threats(pos Position, side ir.Side) (Threat, error)
}
