package xiangqi

import (
	"context"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
	"github.com/roach88/lookahead/internal/session"
	"github.com/roach88/lookahead/internal/store"
)

// place builds a board from piece placements on an empty board.
func place(pieces map[Square]byte) Board {
	b := MustParse(strings.Repeat("_", FingerprintLen))
	for s, p := range pieces {
		b[s.Row][s.Col] = p
	}
	return b
}

func sq(r, c int) Square { return Square{Row: r, Col: c} }

func TestParseRoundTrip(t *testing.T) {
	fp := InitialFingerprint()
	require.Len(t, fp, FingerprintLen)

	b, err := Parse(fp)
	require.NoError(t, err)
	assert.Equal(t, fp, b.Fingerprint())
	assert.Equal(t, Castle, b.At(sq(0, 0)))
	assert.Equal(t, byte('g'), b.At(sq(9, 4)))
	assert.Equal(t, Initial(), b)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse("short")
	assert.Error(t, err)

	bad := []byte(InitialFingerprint())
	bad[10] = 'x'
	_, err = Parse(string(bad))
	assert.ErrorContains(t, err, "unknown piece")
}

func TestInitialMoveCount(t *testing.T) {
	b := Initial()
	assert.Len(t, Moves(b, ir.Top), 44)
	assert.Len(t, Moves(b, ir.Bottom), 44)
	assert.Empty(t, Moves(b, ir.NoSide))
}

func TestCannonNeedsScreenToCapture(t *testing.T) {
	b := Initial()
	targets := Targets(b, sq(2, 1))

	// Jumps the bottom cannon to take the horse behind it.
	assert.Contains(t, targets, sq(9, 1))
	assert.NotContains(t, targets, sq(7, 1), "cannot capture without a screen")
	assert.Contains(t, targets, sq(6, 1))
	assert.NotContains(t, targets, sq(2, 8), "nothing to capture behind the screen")
	assert.Len(t, targets, 12)
}

func TestCastleStopsAtFirstPiece(t *testing.T) {
	b := place(map[Square]byte{
		sq(0, 0): Castle,
		sq(0, 3): 'c',
		sq(4, 0): Soldier,
	})
	targets := Targets(b, sq(0, 0))
	assert.ElementsMatch(t, []Square{
		sq(0, 1), sq(0, 2), sq(0, 3),
		sq(1, 0), sq(2, 0), sq(3, 0),
	}, targets)
}

func TestHorseLegBlock(t *testing.T) {
	open := place(map[Square]byte{sq(4, 4): Horse})
	assert.Len(t, Targets(open, sq(4, 4)), 8)

	blocked := place(map[Square]byte{sq(4, 4): Horse, sq(5, 4): 's'})
	targets := Targets(blocked, sq(4, 4))
	assert.Len(t, targets, 6)
	assert.NotContains(t, targets, sq(6, 3))
	assert.NotContains(t, targets, sq(6, 5))
}

func TestJumboStaysHome(t *testing.T) {
	b := place(map[Square]byte{sq(4, 2): Jumbo})
	assert.ElementsMatch(t, []Square{sq(2, 0), sq(2, 4)}, Targets(b, sq(4, 2)))

	eye := place(map[Square]byte{sq(4, 2): Jumbo, sq(3, 3): 'S'})
	assert.Equal(t, []Square{sq(2, 0)}, Targets(eye, sq(4, 2)))

	bottom := place(map[Square]byte{sq(5, 4): 'j'})
	assert.ElementsMatch(t, []Square{sq(7, 2), sq(7, 6)}, Targets(bottom, sq(5, 4)))
}

func TestPalacePieces(t *testing.T) {
	b := place(map[Square]byte{sq(1, 4): Knight, sq(0, 3): General, sq(9, 5): 'g'})

	assert.ElementsMatch(t, []Square{sq(0, 5), sq(2, 3), sq(2, 5)}, Targets(b, sq(1, 4)))

	// No general on file 3, so nothing to fly to.
	assert.ElementsMatch(t, []Square{sq(0, 4), sq(1, 3)}, Targets(b, sq(0, 3)))
}

func TestFlyingGeneral(t *testing.T) {
	b := place(map[Square]byte{sq(0, 4): General, sq(9, 4): 'g'})
	assert.Contains(t, Targets(b, sq(0, 4)), sq(9, 4))
	assert.Contains(t, Targets(b, sq(9, 4)), sq(0, 4))

	screened := place(map[Square]byte{sq(0, 4): General, sq(5, 4): 's', sq(9, 4): 'g'})
	assert.NotContains(t, Targets(screened, sq(0, 4)), sq(9, 4))
}

func TestSoldierCrossesRiver(t *testing.T) {
	home := place(map[Square]byte{sq(3, 4): Soldier})
	assert.Equal(t, []Square{sq(4, 4)}, Targets(home, sq(3, 4)))

	across := place(map[Square]byte{sq(5, 4): Soldier})
	assert.Equal(t, []Square{sq(6, 4), sq(5, 3), sq(5, 5)}, Targets(across, sq(5, 4)))

	bottom := place(map[Square]byte{sq(4, 0): 's'})
	assert.Equal(t, []Square{sq(3, 0), sq(4, 1)}, Targets(bottom, sq(4, 0)))
}

func TestScore(t *testing.T) {
	winner, total := Score(Initial())
	assert.Equal(t, ir.NoSide, winner)
	assert.Equal(t, 0, total)

	b := Initial()
	b[9][4] = Empty
	winner, total = Score(b)
	assert.Equal(t, ir.Top, winner)
	assert.Equal(t, WinScore+7, total)

	b = Initial()
	b[0][4] = Empty
	b[9][0] = Empty
	winner, total = Score(b)
	assert.Equal(t, ir.Bottom, winner)
	assert.Equal(t, -WinScore-7+6, total)
}

func TestValue(t *testing.T) {
	assert.Equal(t, 1, Value(Soldier))
	assert.Equal(t, -6, Value('c'))
	assert.Equal(t, 0, Value(Empty))
	assert.Equal(t, 4, Value(Cannon))
}

func TestThreats(t *testing.T) {
	b := place(map[Square]byte{sq(0, 4): General, sq(9, 3): 'g', sq(2, 4): 'c'})

	top := ThreatsFor(b, ir.Top)
	assert.False(t, top.CanCapture)
	assert.True(t, top.Exposed)

	bottom := ThreatsFor(b, ir.Bottom)
	assert.True(t, bottom.CanCapture)
	assert.False(t, bottom.Exposed)
}

func TestThreatsOpenFile(t *testing.T) {
	b := place(map[Square]byte{sq(0, 4): General, sq(9, 4): 'g'})
	th := ThreatsFor(b, ir.Top)
	assert.True(t, th.CanCapture)
	assert.True(t, th.Exposed)

	missing := place(map[Square]byte{sq(0, 4): General})
	assert.Equal(t, engine.Threat{}, ThreatsFor(missing, ir.Top))
}

func TestRulesCollaborator(t *testing.T) {
	r := Rules{}
	b := Initial()

	moves, err := r.LegalMoves(b, ir.Top)
	require.NoError(t, err)
	require.Len(t, moves, 44)

	m := Move{From: sq(2, 1), To: sq(9, 1)}
	next, err := r.Apply(b, m)
	require.NoError(t, err)
	assert.Equal(t, Cannon, next.(Board).At(sq(9, 1)))
	assert.Equal(t, Castle, b.At(sq(0, 0)))
	assert.Equal(t, byte('h'), b.At(sq(9, 1)), "input board untouched")

	_, eval, err := r.Evaluate(next)
	require.NoError(t, err)
	assert.Equal(t, 5.0, eval)

	fp := r.Fingerprint(next)
	back, err := r.Position(fp)
	require.NoError(t, err)
	assert.Equal(t, next, back)

	_, err = r.Apply(b, "e2e4")
	assert.Error(t, err)
	_, err = r.Apply(b, Move{From: sq(4, 4), To: sq(5, 4)})
	assert.ErrorContains(t, err, "no piece")
	_, err = r.LegalMoves("nope", ir.Top)
	assert.Error(t, err)
	_, err = r.LegalMoves(b, ir.NoSide)
	assert.Error(t, err)
	assert.Empty(t, r.Fingerprint(42))

	ptr := &b
	fpPtr := r.Fingerprint(ptr)
	assert.Equal(t, b.Fingerprint(), fpPtr)
}

func TestMovesAreDeterministic(t *testing.T) {
	b := Initial()
	first := Moves(b, ir.Bottom)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Moves(b, ir.Bottom))
	}
	assert.True(t, lo.EveryBy(first, func(m Move) bool { return Owner(b.At(m.From)) == ir.Bottom }))
}

func TestSearchFromInitialPosition(t *testing.T) {
	mem := store.NewMemory()
	req := engine.Request{Start: Initial(), Side: ir.Top, Budget: 30, CheckpointInterval: 10}

	res, err := engine.RunSearch(context.Background(), Rules{}, session.New(mem), req)
	require.NoError(t, err)

	assert.Equal(t, 30, res.Consumed)
	assert.Equal(t, engine.StopBudget, res.Stopped)
	assert.Equal(t, InitialFingerprint(), res.Nodes[0].Fingerprint)
	assert.Len(t, res.Nodes[0].Children, 44)
	assert.Equal(t, 3, mem.Saves())

	ids := lo.Map(res.Nodes, func(n *ir.Node, _ int) int { return n.ID })
	for i, id := range ids {
		assert.Equal(t, i, id)
	}

	// Resume from the stored checkpoint.
	more, err := engine.RunSearch(context.Background(), Rules{}, session.New(mem), engine.Request{
		Start: Initial(), Side: ir.Top, Budget: 5, CheckpointInterval: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 35, more.Consumed)
	assert.GreaterOrEqual(t, len(more.Nodes), len(res.Nodes))
}

func TestFingerprintRejectsForeignPositions(t *testing.T) {
	var r Rules
	b := Initial()
	assert.Equal(t, InitialFingerprint(), r.Fingerprint(&b))

	assert.PanicsWithValue(t, "xiangqi fingerprint: position string: not a board", func() {
		r.Fingerprint("not a board")
	})
	assert.Panics(t, func() { r.Fingerprint((*Board)(nil)) })
}
