package xiangqi

import (
	"fmt"
	"strings"

	"github.com/roach88/lookahead/internal/ir"
)

const (
	// Rows is the board height.
	Rows = 10
	// Cols is the board width.
	Cols = 9
	// FingerprintLen is the length of a board fingerprint.
	FingerprintLen = Rows * Cols
)

// Piece letters. Upper case belongs to Top, lower case to Bottom.
const (
	Empty   byte = '_'
	Cannon  byte = 'A'
	Castle  byte = 'C'
	General byte = 'G'
	Horse   byte = 'H'
	Jumbo   byte = 'J'
	Knight  byte = 'K'
	Soldier byte = 'S'
)

// initialRows is the opening setup, Top at row 0.
var initialRows = [Rows]string{
	"CHJKGKJHC",
	"_________",
	"_A_____A_",
	"S_S_S_S_S",
	"_________",
	"_________",
	"s_s_s_s_s",
	"_a_____a_",
	"_________",
	"chjkgkjhc",
}

// Square addresses one cell. Row 0 is Top's back rank.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) String() string {
	return fmt.Sprintf("%d,%d", s.Row, s.Col)
}

func (s Square) add(dr, dc int) Square {
	return Square{Row: s.Row + dr, Col: s.Col + dc}
}

// InBounds reports whether s lies on the board.
func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < Rows && s.Col >= 0 && s.Col < Cols
}

// Board is a full position. Boards are values; Apply never mutates its input.
type Board [Rows][Cols]byte

// Initial returns the opening position.
func Initial() Board {
	b, err := Parse(InitialFingerprint())
	if err != nil {
		panic(err)
	}
	return b
}

// InitialFingerprint returns the fingerprint of the opening position.
func InitialFingerprint() string {
	return strings.Join(initialRows[:], "")
}

// Parse rebuilds a board from its row-major fingerprint.
func Parse(fingerprint string) (Board, error) {
	var b Board
	if len(fingerprint) != FingerprintLen {
		return b, fmt.Errorf("fingerprint has %d cells, want %d", len(fingerprint), FingerprintLen)
	}
	for i := 0; i < FingerprintLen; i++ {
		c := fingerprint[i]
		if !validPiece(c) {
			return b, fmt.Errorf("fingerprint cell %d: unknown piece %q", i, c)
		}
		b[i/Cols][i%Cols] = c
	}
	return b, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(fingerprint string) Board {
	b, err := Parse(fingerprint)
	if err != nil {
		panic(err)
	}
	return b
}

// Fingerprint returns the row-major 90-character encoding of b.
func (b Board) Fingerprint() string {
	var sb strings.Builder
	sb.Grow(FingerprintLen)
	for r := 0; r < Rows; r++ {
		sb.Write(b[r][:])
	}
	return sb.String()
}

// String renders one row per line.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		sb.Write(b[r][:])
		if r < Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// At returns the piece on s.
func (b Board) At(s Square) byte {
	return b[s.Row][s.Col]
}

// Find returns the square holding piece, scanning row-major.
func (b Board) Find(piece byte) (Square, bool) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b[r][c] == piece {
				return Square{Row: r, Col: c}, true
			}
		}
	}
	return Square{}, false
}

// Moved returns a copy of b with the piece on from played to to.
func (b Board) Moved(m Move) Board {
	b[m.To.Row][m.To.Col] = b[m.From.Row][m.From.Col]
	b[m.From.Row][m.From.Col] = Empty
	return b
}

func validPiece(c byte) bool {
	switch upper(c) {
	case Empty, Cannon, Castle, General, Horse, Jumbo, Knight, Soldier:
		return true
	}
	return false
}

// Owner returns the side owning piece, or ir.NoSide for an empty cell.
func Owner(piece byte) ir.Side {
	switch {
	case piece >= 'A' && piece <= 'Z':
		return ir.Top
	case piece >= 'a' && piece <= 'z':
		return ir.Bottom
	}
	return ir.NoSide
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// generalOf returns side's general letter.
func generalOf(side ir.Side) byte {
	if side == ir.Bottom {
		return General - 'A' + 'a'
	}
	return General
}

func friendly(piece, other byte) bool {
	return other != Empty && Owner(piece) == Owner(other)
}

func opponent(piece, other byte) bool {
	return other != Empty && Owner(other) != Owner(piece)
}
