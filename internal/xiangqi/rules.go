package xiangqi

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
)

// WinScore offsets the material score of a decided board.
const WinScore = 10000

// pieceValues lists pieces by ascending value; a piece is worth its index.
var pieceValues = []byte{Empty, Soldier, Jumbo, Knight, Cannon, Horse, Castle, General}

// Value returns the material value of piece, positive for Top.
func Value(piece byte) int {
	v := lo.IndexOf(pieceValues, upper(piece))
	if v < 0 {
		return 0
	}
	if Owner(piece) == ir.Bottom {
		return -v
	}
	return v
}

// Score returns the winner of b, if a general is gone, and its material
// balance from Top's point of view.
func Score(b Board) (ir.Side, int) {
	total := 0
	top, bottom := false, false
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			p := b[r][c]
			total += Value(p)
			switch p {
			case generalOf(ir.Top):
				top = true
			case generalOf(ir.Bottom):
				bottom = true
			}
		}
	}
	switch {
	case !top:
		return ir.Bottom, total - WinScore
	case !bottom:
		return ir.Top, total + WinScore
	}
	return ir.NoSide, total
}

// ThreatsFor reports whether side can take the opposing general next move,
// and whether the opponent could take side's general.
func ThreatsFor(b Board, side ir.Side) engine.Threat {
	return engine.Threat{
		CanCapture: attacks(b, side, generalOf(side.Opponent())),
		Exposed:    attacks(b, side.Opponent(), generalOf(side)),
	}
}

func attacks(b Board, side ir.Side, target byte) bool {
	sq, ok := b.Find(target)
	if !ok {
		return false
	}
	return lo.ContainsBy(Moves(b, side), func(m Move) bool { return m.To == sq })
}

// Rules plays xiangqi for the search engine. Positions are Board values and
// moves are Move values.
type Rules struct{}

var _ engine.Rules = Rules{}

// LegalMoves implements engine.Rules.
func (Rules) LegalMoves(pos engine.Position, side ir.Side) ([]engine.Move, error) {
	b, err := board(pos)
	if err != nil {
		return nil, err
	}
	if !side.Valid() {
		return nil, fmt.Errorf("invalid side %s", side)
	}
	return lo.Map(Moves(b, side), func(m Move, _ int) engine.Move { return m }), nil
}

// Apply implements engine.Rules.
func (Rules) Apply(pos engine.Position, m engine.Move) (engine.Position, error) {
	b, err := board(pos)
	if err != nil {
		return nil, err
	}
	mv, ok := m.(Move)
	if !ok {
		return nil, fmt.Errorf("move %v: not a board move", m)
	}
	if !mv.From.InBounds() || !mv.To.InBounds() {
		return nil, fmt.Errorf("move %s-%s: off the board", mv.From, mv.To)
	}
	if b.At(mv.From) == Empty {
		return nil, fmt.Errorf("move %s-%s: no piece on %s", mv.From, mv.To, mv.From)
	}
	return b.Moved(mv), nil
}

// Evaluate implements engine.Rules.
func (Rules) Evaluate(pos engine.Position) (ir.Side, float64, error) {
	b, err := board(pos)
	if err != nil {
		return ir.NoSide, 0, err
	}
	winner, total := Score(b)
	return winner, float64(total), nil
}

// Fingerprint implements engine.Rules. Positions only come from Position
// and Moves, so anything other than a board is a caller bug and panics.
func (Rules) Fingerprint(pos engine.Position) string {
	b, err := board(pos)
	if err != nil {
		panic(fmt.Sprintf("xiangqi fingerprint: %v", err))
	}
	return b.Fingerprint()
}

// Position implements engine.Rules.
func (Rules) Position(fingerprint string) (engine.Position, error) {
	b, err := Parse(fingerprint)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Threats implements engine.Rules.
func (Rules) Threats(pos engine.Position, side ir.Side) (engine.Threat, error) {
	b, err := board(pos)
	if err != nil {
		return engine.Threat{}, err
	}
	if !side.Valid() {
		return engine.Threat{}, fmt.Errorf("invalid side %s", side)
	}
	return ThreatsFor(b, side), nil
}

func board(pos engine.Position) (Board, error) {
	switch b := pos.(type) {
	case Board:
		return b, nil
	case *Board:
		if b != nil {
			return *b, nil
		}
	}
	return Board{}, fmt.Errorf("position %T: not a board", pos)
}
