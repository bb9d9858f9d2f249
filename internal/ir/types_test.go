package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideOpponent(t *testing.T) {
	assert.Equal(t, Bottom, Top.Opponent())
	assert.Equal(t, Top, Bottom.Opponent())
	assert.Equal(t, NoSide, NoSide.Opponent())
}

func TestToMove(t *testing.T) {
	assert.Equal(t, Top, ToMove(Top, 0))
	assert.Equal(t, Bottom, ToMove(Top, 1))
	assert.Equal(t, Bottom, ToMove(Bottom, 0))
	assert.Equal(t, Top, ToMove(Bottom, 1))
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in   string
		want Side
	}{
		{"top", Top},
		{"TOP", Top},
		{"a", Top},
		{"bottom", Bottom},
		{" b ", Bottom},
		{"none", NoSide},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSide(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSide("left")
	assert.Error(t, err)
}

func TestSideJSON(t *testing.T) {
	n := Node{ID: 3, Winner: Bottom, Parent: 1}
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"winner":"bottom"`)

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Bottom, back.Winner)
}

func TestNodeClone(t *testing.T) {
	n := &Node{ID: 1, Relatives: []int{4}, Children: []int{2, 3}}
	c := n.Clone()
	c.Children[0] = 99
	c.Relatives = append(c.Relatives, 5)

	assert.Equal(t, []int{2, 3}, n.Children)
	assert.Equal(t, []int{4}, n.Relatives)
}

func TestSummarize(t *testing.T) {
	nodes := []*Node{
		{ID: 0, Depth: 0, Urgency: Sentinel},
		{ID: 1, Depth: 1, Urgency: 4},
		{ID: 2, Depth: 1, Urgency: 7},
		{ID: 3, Depth: 2, Urgency: -Sentinel},
		{ID: 4, Depth: 2, Urgency: 1},
	}

	s := Summarize(nodes, 12)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 12, s.Consumed)
	assert.Equal(t, 2, s.HighestUrgency, "sentinel urgencies are skipped")
	assert.Equal(t, 3, s.Deepest, "first node at max depth wins")
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 0)
	assert.Equal(t, -1, s.HighestUrgency)
	assert.Equal(t, -1, s.Deepest)
}

func TestShortHash(t *testing.T) {
	a := ShortHash("CHJKGKJHC")
	assert.Equal(t, a, ShortHash("CHJKGKJHC"))
	assert.NotEqual(t, a, ShortHash("CHJKGKJH_"))
	assert.Len(t, ShortHashHex("x"), 16)
}
