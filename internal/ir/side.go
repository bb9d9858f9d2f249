package ir

import (
	"fmt"
	"strings"
)

// Side identifies one of the two players. The zero value is NoSide and is
// used as "no winner" on nodes.
type Side uint8

const (
	NoSide Side = iota
	// Top is side A: upper-case pieces, evaluations are positive in its favour.
	Top
	// Bottom is side B.
	Bottom
)

// Opponent returns the other side. NoSide has no opponent.
func (s Side) Opponent() Side {
	switch s {
	case Top:
		return Bottom
	case Bottom:
		return Top
	default:
		return NoSide
	}
}

// Valid reports whether s is Top or Bottom.
func (s Side) Valid() bool {
	return s == Top || s == Bottom
}

func (s Side) String() string {
	switch s {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return "none"
	}
}

// ParseSide parses "top", "bottom" or "none" (case-insensitive).
// The aliases "a" and "b" map to Top and Bottom.
func ParseSide(text string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "top", "a":
		return Top, nil
	case "bottom", "b":
		return Bottom, nil
	case "none", "":
		return NoSide, nil
	}
	return NoSide, fmt.Errorf("unknown side %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ToMove returns the side to move at a node with the given parity, when
// root is the side to move at the root.
func ToMove(root Side, parity uint8) Side {
	if parity%2 == 0 {
		return root
	}
	return root.Opponent()
}
