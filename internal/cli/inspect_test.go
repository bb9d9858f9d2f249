package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lookahead/internal/ir"
)

func TestInspectRoot(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, db, "search", "--budget", "3")
	require.NoError(t, err)

	out, err := execute(t, db, "--format", "json", "inspect")
	require.NoError(t, err)
	var r InspectOutput
	decode(t, out, &r)

	assert.Equal(t, 3, r.Consumed)
	assert.Equal(t, 0, r.Node.ID)
	assert.Nil(t, r.Parent)
	assert.Len(t, r.Children, 44)
	assert.Equal(t, 0, r.RootNode.ID)
	require.NotNil(t, r.Deepest)
	assert.Equal(t, 2, r.Deepest.Depth)

	for i := 1; i < len(r.Children); i++ {
		prev, cur := r.Children[i-1], r.Children[i]
		assert.True(t, prev.Urgency > cur.Urgency ||
			(prev.Urgency == cur.Urgency && prev.Depth <= cur.Depth), "children ranked")
	}
}

func TestInspectChildByIDAndShortHash(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, db, "search", "--budget", "2")
	require.NoError(t, err)

	out, err := execute(t, db, "--format", "json", "inspect", "1")
	require.NoError(t, err)
	var byID InspectOutput
	decode(t, out, &byID)
	assert.Equal(t, 1, byID.Node.ID)
	require.NotNil(t, byID.Parent)
	assert.Equal(t, 0, byID.Parent.ID)
	assert.Equal(t, 1, byID.Node.Depth)
	assert.Equal(t, uint8(1), byID.Node.Parity)

	out, err = execute(t, db, "--format", "json", "inspect", byID.Node.ShortHash)
	require.NoError(t, err)
	var byHash InspectOutput
	decode(t, out, &byHash)
	assert.Equal(t, byID.Node, byHash.Node)
}

func TestInspectTextOutput(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, db, "search", "--budget", "1")
	require.NoError(t, err)

	out, err := execute(t, db, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "consumed 1, 45 nodes")
	assert.Contains(t, out, "Node #0")
	assert.Contains(t, out, "Children (44):")
	assert.Contains(t, out, "CHJKGKJHC")
}

func TestInspectErrors(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, db, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such session")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, db, "search", "--budget", "1")
	require.NoError(t, err)

	_, err = execute(t, db, "inspect", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in session")

	_, err = execute(t, db, "inspect", "ffffffffffffffff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no node with short hash")
}

func TestResolveNode(t *testing.T) {
	lookup := func(hash string) ([]int, error) {
		switch hash {
		case "00000000000000aa":
			return []int{4, 9}, nil
		case "broken":
			return nil, errors.New("db closed")
		}
		return []int{}, nil
	}

	id, err := resolveNode("12", lookup)
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	id, err = resolveNode("00000000000000aa", lookup)
	require.NoError(t, err)
	assert.Equal(t, 4, id)

	_, err = resolveNode("broken", lookup)
	assert.ErrorContains(t, err, "db closed")

	_, err = resolveNode("0000000000000001", lookup)
	assert.ErrorContains(t, err, "no node with short hash")
}

func TestDescribeRanksChildren(t *testing.T) {
	snap := &ir.Snapshot{
		Key: ir.SessionKey{Side: ir.Top, Fingerprint: "root"},
		Nodes: []*ir.Node{
			{ID: 0, Fingerprint: "root", Parent: ir.NoParent, Children: []int{1, 2, 3}},
			{ID: 1, Fingerprint: "a", Parity: 1, Depth: 1, Urgency: 2, Parent: 0},
			{ID: 2, Fingerprint: "b", Parity: 1, Depth: 1, Urgency: 7, Parent: 0, Relatives: []int{3}},
			{ID: 3, Fingerprint: "c", Parity: 1, Depth: 1, Urgency: 7, Parent: 0},
		},
		Consumed: 1,
		Summary:  ir.Summary{Total: 4, Consumed: 1, HighestUrgency: 2, Deepest: 1},
	}

	r, err := describe(snap, 0)
	require.NoError(t, err)
	ids := []int{r.Children[0].ID, r.Children[1].ID, r.Children[2].ID}
	assert.Equal(t, []int{2, 3, 1}, ids)
	assert.Equal(t, []int{}, r.Relatives)
	assert.Equal(t, 2, r.HighestUrgency.ID)

	r, err = describe(snap, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, r.Relatives)
	assert.Empty(t, r.Children)

	_, err = describe(snap, -1)
	assert.Error(t, err)
}
