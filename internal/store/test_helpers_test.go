package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/lookahead/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot builds a three-node snapshot: a root with two children,
// the second of which has the first as a relative.
func createTestSnapshot(side ir.Side, fingerprint string, consumed int) *ir.Snapshot {
	nodes := []*ir.Node{
		{ID: 0, Fingerprint: fingerprint, Parity: 0, Depth: 0, Urgency: -4, Parent: ir.NoParent, Children: []int{1, 2}},
		{ID: 1, Fingerprint: fingerprint + "-a", Parity: 1, Depth: 1, Evaluation: 2, Urgency: 2, Open: true, Parent: 0},
		{ID: 2, Fingerprint: fingerprint + "-b", Parity: 1, Depth: 1, Evaluation: 4, Winner: ir.Top, Urgency: 4, Terminated: true, Parent: 0, Relatives: []int{1}},
	}
	return &ir.Snapshot{
		Key:      ir.SessionKey{Side: side, Fingerprint: fingerprint},
		Nodes:    nodes,
		Consumed: consumed,
		Summary:  ir.Summarize(nodes, consumed),
	}
}
