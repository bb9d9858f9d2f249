package engine

import (
	"fmt"
	"math"

	"github.com/roach88/lookahead/internal/ir"
)

// ScoreInput carries everything the urgency rule looks at.
type ScoreInput struct {
	Depth          int
	Evaluation     float64
	RootEvaluation float64

	// RootSide is the side to move at the root.
	RootSide ir.Side

	// Winner is the decisive winner recorded for the position, if any.
	Winner ir.Side

	Threat Threat
}

// toMove returns the side to move at the scored position.
func (in ScoreInput) toMove() ir.Side {
	return ir.ToMove(in.RootSide, uint8(in.Depth%2))
}

// Score computes the urgency of a position. Higher urgency is explored first.
//
// Decisive positions get a sentinel:
//   - a winner that is the side which just moved: +Sentinel
//   - a winner that is the side to move: -Sentinel
//   - the side to move can take the opposing general: +Sentinel
//   - the side to move's general can be taken: -Sentinel
//
// Otherwise urgency is the evaluation shift since the root, signed for the
// side that decides here: rootEval-eval when Top is to move, eval-rootEval
// when Bottom is.
func Score(in ScoreInput) (float64, error) {
	if math.IsNaN(in.Evaluation) || math.IsInf(in.Evaluation, 0) {
		return 0, &RuntimeError{
			Code:    ErrCodeInvalidEvaluation,
			Message: fmt.Sprintf("evaluation %v at depth %d", in.Evaluation, in.Depth),
			NodeID:  -1,
		}
	}
	if math.IsNaN(in.RootEvaluation) || math.IsInf(in.RootEvaluation, 0) {
		return 0, &RuntimeError{
			Code:    ErrCodeInvalidEvaluation,
			Message: fmt.Sprintf("root evaluation %v", in.RootEvaluation),
			NodeID:  -1,
		}
	}

	toMove := in.toMove()
	switch {
	case in.Winner != ir.NoSide && in.Winner == toMove.Opponent():
		return ir.Sentinel, nil
	case in.Winner != ir.NoSide:
		return -ir.Sentinel, nil
	case in.Threat.CanCapture:
		return ir.Sentinel, nil
	case in.Threat.Exposed:
		return -ir.Sentinel, nil
	}

	if toMove == ir.Top {
		return in.RootEvaluation - in.Evaluation, nil
	}
	return in.Evaluation - in.RootEvaluation, nil
}
