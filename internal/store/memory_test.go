package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lookahead/internal/ir"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	snap := createTestSnapshot(ir.Top, "root", 3)

	_, err := m.Load(ctx, snap.Key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, snap))
	assert.Equal(t, 1, m.Saves())

	got, err := m.Load(ctx, snap.Key)
	require.NoError(t, err)
	assert.Equal(t, snap.Nodes, got.Nodes)
	assert.Equal(t, 3, got.Consumed)
}

func TestMemoryCopiesSnapshots(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	snap := createTestSnapshot(ir.Top, "root", 3)
	require.NoError(t, m.Save(ctx, snap))

	snap.Nodes[0].Urgency = 99
	got, err := m.Load(ctx, snap.Key)
	require.NoError(t, err)
	assert.Equal(t, -4.0, got.Nodes[0].Urgency)

	got.Nodes[1].Open = false
	again, err := m.Load(ctx, snap.Key)
	require.NoError(t, err)
	assert.True(t, again.Nodes[1].Open)
}

func TestMemoryList(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, createTestSnapshot(ir.Top, "a", 1)))
	require.NoError(t, m.Save(ctx, createTestSnapshot(ir.Bottom, "b", 2)))
	require.NoError(t, m.Save(ctx, createTestSnapshot(ir.Top, "a", 4)))

	infos, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Key.Fingerprint)
	assert.Equal(t, 4, infos[0].Summary.Consumed)
}
