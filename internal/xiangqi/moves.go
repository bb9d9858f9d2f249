package xiangqi

import "github.com/roach88/lookahead/internal/ir"

// Move plays the piece on From to To, capturing whatever stands there.
type Move struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

type step struct{ dr, dc int }

var (
	orthogonal = []step{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	diagonal   = []step{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// Moves lists every move for side in b: pieces row-major, each piece's
// targets in a fixed direction order.
func Moves(b Board, side ir.Side) []Move {
	var moves []Move
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			from := Square{Row: r, Col: c}
			if b.At(from) == Empty || Owner(b.At(from)) != side {
				continue
			}
			for _, to := range Targets(b, from) {
				moves = append(moves, Move{From: from, To: to})
			}
		}
	}
	return moves
}

// Targets lists the squares the piece on from can reach.
func Targets(b Board, from Square) []Square {
	switch upper(b.At(from)) {
	case Castle:
		return castleTargets(b, from)
	case Cannon:
		return cannonTargets(b, from)
	case Horse:
		return horseTargets(b, from)
	case Jumbo:
		return jumboTargets(b, from)
	case Knight:
		return knightTargets(b, from)
	case General:
		return generalTargets(b, from)
	case Soldier:
		return soldierTargets(b, from)
	}
	return nil
}

func castleTargets(b Board, from Square) []Square {
	piece := b.At(from)
	var out []Square
	for _, d := range orthogonal {
		for s := from.add(d.dr, d.dc); s.InBounds(); s = s.add(d.dr, d.dc) {
			if b.At(s) == Empty {
				out = append(out, s)
				continue
			}
			if opponent(piece, b.At(s)) {
				out = append(out, s)
			}
			break
		}
	}
	return out
}

func cannonTargets(b Board, from Square) []Square {
	piece := b.At(from)
	var out []Square
	for _, d := range orthogonal {
		s := from.add(d.dr, d.dc)
		for ; s.InBounds() && b.At(s) == Empty; s = s.add(d.dr, d.dc) {
			out = append(out, s)
		}
		if !s.InBounds() {
			continue
		}
		// s is the screen; capture the first piece behind it.
		for s = s.add(d.dr, d.dc); s.InBounds(); s = s.add(d.dr, d.dc) {
			if b.At(s) == Empty {
				continue
			}
			if opponent(piece, b.At(s)) {
				out = append(out, s)
			}
			break
		}
	}
	return out
}

func horseTargets(b Board, from Square) []Square {
	piece := b.At(from)
	var out []Square
	for _, d := range orthogonal {
		leg := from.add(d.dr, d.dc)
		if !leg.InBounds() || b.At(leg) != Empty {
			continue
		}
		for _, side := range []int{-1, 1} {
			// Swap axes for the sideways offset.
			to := from.add(2*d.dr+side*d.dc, 2*d.dc+side*d.dr)
			if to.InBounds() && !friendly(piece, b.At(to)) {
				out = append(out, to)
			}
		}
	}
	return out
}

func jumboTargets(b Board, from Square) []Square {
	piece := b.At(from)
	var out []Square
	for _, d := range diagonal {
		eye := from.add(d.dr, d.dc)
		to := from.add(2*d.dr, 2*d.dc)
		if !to.InBounds() || !ownHalf(piece, to) || b.At(eye) != Empty {
			continue
		}
		if !friendly(piece, b.At(to)) {
			out = append(out, to)
		}
	}
	return out
}

func knightTargets(b Board, from Square) []Square {
	piece := b.At(from)
	var out []Square
	for _, d := range diagonal {
		to := from.add(d.dr, d.dc)
		if inPalace(piece, to) && !friendly(piece, b.At(to)) {
			out = append(out, to)
		}
	}
	return out
}

func generalTargets(b Board, from Square) []Square {
	piece := b.At(from)
	var out []Square
	for _, d := range orthogonal {
		to := from.add(d.dr, d.dc)
		if inPalace(piece, to) && !friendly(piece, b.At(to)) {
			out = append(out, to)
		}
	}
	// Flying general: an open file to the opposing general is a capture.
	dr := forward(piece)
	s := from.add(dr, 0)
	for s.InBounds() && b.At(s) == Empty {
		s = s.add(dr, 0)
	}
	if s.InBounds() && upper(b.At(s)) == General && opponent(piece, b.At(s)) {
		out = append(out, s)
	}
	return out
}

func soldierTargets(b Board, from Square) []Square {
	piece := b.At(from)
	var out []Square
	if to := from.add(forward(piece), 0); to.InBounds() && !friendly(piece, b.At(to)) {
		out = append(out, to)
	}
	if ownHalf(piece, from) {
		return out
	}
	for _, dc := range []int{-1, 1} {
		if to := from.add(0, dc); to.InBounds() && !friendly(piece, b.At(to)) {
			out = append(out, to)
		}
	}
	return out
}

// forward is the row direction towards the opponent.
func forward(piece byte) int {
	if Owner(piece) == ir.Top {
		return 1
	}
	return -1
}

// ownHalf reports whether s is on the piece owner's side of the river.
func ownHalf(piece byte, s Square) bool {
	if Owner(piece) == ir.Top {
		return s.Row <= 4
	}
	return s.Row >= 5
}

// inPalace reports whether s is inside the piece owner's 3x3 palace.
func inPalace(piece byte, s Square) bool {
	if s.Col < 3 || s.Col > 5 {
		return false
	}
	if Owner(piece) == ir.Top {
		return s.Row >= 0 && s.Row <= 2
	}
	return s.Row >= 7 && s.Row <= 9
}
