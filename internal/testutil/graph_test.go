package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lookahead/internal/ir"
)

func TestGraphMoves(t *testing.T) {
	g := NewGraph().Add("root", 0, "a", "b").Add("a", 3)

	moves, err := g.LegalMoves("root", ir.Top)
	require.NoError(t, err)
	require.Len(t, moves, 2)

	next, err := g.Apply("root", moves[1])
	require.NoError(t, err)
	assert.Equal(t, "b", g.Fingerprint(next))

	_, eval, err := g.Evaluate("a")
	require.NoError(t, err)
	assert.Equal(t, 3.0, eval)
	assert.Equal(t, 1, g.Evaluations("a"))
	assert.Equal(t, []string{"a", "b", "root"}, g.Fingerprints())
}

func TestGraphFlags(t *testing.T) {
	g := NewGraph().Add("root", 0, "w").Win("w", ir.Bottom).Capture("root").Expose("w")

	winner, _, err := g.Evaluate("w")
	require.NoError(t, err)
	assert.Equal(t, ir.Bottom, winner)

	threat, err := g.Threats("root", ir.Top)
	require.NoError(t, err)
	assert.True(t, threat.CanCapture)
	assert.False(t, threat.Exposed)
}

func TestGraphUnknownAndFailures(t *testing.T) {
	boom := errors.New("boom")
	g := NewGraph().Add("root", 0, "a").FailOn("a", boom)

	_, err := g.Position("zzz")
	assert.ErrorIs(t, err, ErrUnknownPosition)

	_, _, err = g.Evaluate("a")
	assert.ErrorIs(t, err, boom)
}

func TestRandomGraphIsReproducible(t *testing.T) {
	a := RandomGraph(7, 20, 3)
	b := RandomGraph(7, 20, 3)
	assert.Equal(t, a.Fingerprints(), b.Fingerprints())

	for _, fp := range a.Fingerprints() {
		ma, err := a.LegalMoves(fp, ir.Top)
		require.NoError(t, err)
		mb, err := b.LegalMoves(fp, ir.Top)
		require.NoError(t, err)
		assert.Equal(t, ma, mb)
	}
}

func TestFixedRunIDGenerator(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
	g := NewFixedRunIDGenerator("r1")
	assert.Equal(t, "r1", g.Generate())
	assert.Equal(t, "r1", g.Generate())
}
