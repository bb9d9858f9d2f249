package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/lookahead/internal/ir"
)

// Memory is an in-process durable store with the same contract as Store.
// Snapshots are deep-copied on the way in and out.
//
// Thread-safety: Memory is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	snaps map[ir.SessionKey]*ir.Snapshot
	ids   map[ir.SessionKey]string
	saves int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		snaps: make(map[ir.SessionKey]*ir.Snapshot),
		ids:   make(map[ir.SessionKey]string),
	}
}

// Load returns a copy of the snapshot stored for key, or ErrNotFound.
func (m *Memory) Load(_ context.Context, key ir.SessionKey) (*ir.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snaps[key]
	if !ok {
		return nil, fmt.Errorf("load %s/%s: %w", key.Side, ir.ShortHashHex(key.Fingerprint), ErrNotFound)
	}
	return copySnapshot(snap), nil
}

// Save stores a copy of snap, replacing any earlier snapshot for its key.
func (m *Memory) Save(_ context.Context, snap *ir.Snapshot) error {
	if !snap.Key.Side.Valid() {
		return fmt.Errorf("save session: invalid side %v", snap.Key.Side)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ids[snap.Key]; !ok {
		m.ids[snap.Key] = uuid.Must(uuid.NewV7()).String()
	}
	m.snaps[snap.Key] = copySnapshot(snap)
	m.saves++
	return nil
}

// Saves returns the number of successful Save calls.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// List returns every stored session ordered by id.
func (m *Memory) List(_ context.Context) ([]SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(m.snaps))
	for key, snap := range m.snaps {
		infos = append(infos, SessionInfo{ID: m.ids[key], Key: key, Summary: snap.Summary})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func copySnapshot(snap *ir.Snapshot) *ir.Snapshot {
	c := *snap
	c.Nodes = make([]*ir.Node, len(snap.Nodes))
	for i, n := range snap.Nodes {
		c.Nodes[i] = n.Clone()
	}
	return &c
}
