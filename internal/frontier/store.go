package frontier

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/btree"

	"github.com/roach88/lookahead/internal/ir"
)

// btreeDegree is the fan-out of the ranking tree.
const btreeDegree = 32

var (
	// ErrDuplicateKey is returned by Insert when a node with the same
	// (fingerprint, parity) already exists.
	ErrDuplicateKey = errors.New("duplicate node key")

	// ErrUnknownNode is returned when an id does not address a stored node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrOutOfSequence is returned when an inserted id is not the next dense id.
	ErrOutOfSequence = errors.New("node id out of sequence")

	// ErrImmutableField is returned when a Reinsert mutation changes the
	// node's id or deduplication key.
	ErrImmutableField = errors.New("node id and key are immutable")
)

// Store is the in-memory position node store.
// It is not safe for concurrent use; the engine owns it exclusively.
type Store struct {
	nodes  []*ir.Node
	index  map[ir.Key]int
	ranked *btree.BTreeG[*ir.Node]
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index:  make(map[ir.Key]int),
		ranked: btree.NewG(btreeDegree, rankLess),
	}
}

// rankLess orders nodes best first.
func rankLess(a, b *ir.Node) bool {
	if a.Urgency != b.Urgency {
		return a.Urgency > b.Urgency
	}
	if a.Depth != b.Depth {
		return a.Depth < b.Depth
	}
	return a.ID < b.ID
}

// Len returns the number of stored nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// NextID returns the id the next inserted node must carry.
func (s *Store) NextID() int {
	return len(s.nodes)
}

// Eligible returns the number of open, non-terminated nodes.
func (s *Store) Eligible() int {
	return s.ranked.Len()
}

// Exists returns a copy of the node stored under key, or nil.
func (s *Store) Exists(key ir.Key) *ir.Node {
	id, ok := s.index[key]
	if !ok {
		return nil
	}
	return s.nodes[id].Clone()
}

// Get returns a copy of the node with the given id.
func (s *Store) Get(id int) (*ir.Node, error) {
	n, err := s.node(id)
	if err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

// Best returns a copy of the highest-ranked eligible node, or nil when the
// frontier is exhausted.
func (s *Store) Best() *ir.Node {
	n, ok := s.ranked.Min()
	if !ok {
		return nil
	}
	return n.Clone()
}

// Insert adds a new node. The node's id must equal NextID.
func (s *Store) Insert(n *ir.Node) error {
	key := n.Key()
	if existing, ok := s.index[key]; ok {
		return fmt.Errorf("%w: fingerprint %s parity %d held by node %d",
			ErrDuplicateKey, ir.ShortHashHex(key.Fingerprint), key.Parity, existing)
	}
	if n.ID != len(s.nodes) {
		return fmt.Errorf("%w: got %d, want %d", ErrOutOfSequence, n.ID, len(s.nodes))
	}

	stored := n.Clone()
	s.nodes = append(s.nodes, stored)
	s.index[key] = stored.ID
	if stored.Eligible() {
		s.ranked.ReplaceOrInsert(stored)
	}
	return nil
}

// Reinsert removes the node from the ranking, applies mutate to it and
// re-ranks it. The mutation must not change the id, fingerprint or parity;
// if it does, the store is left unchanged and ErrImmutableField is returned.
func (s *Store) Reinsert(id int, mutate func(n *ir.Node)) error {
	cur, err := s.node(id)
	if err != nil {
		return err
	}

	next := cur.Clone()
	mutate(next)
	if next.ID != cur.ID || next.Key() != cur.Key() {
		return fmt.Errorf("%w: node %d", ErrImmutableField, id)
	}

	if cur.Eligible() {
		s.ranked.Delete(cur)
	}
	s.nodes[id] = next
	if next.Eligible() {
		s.ranked.ReplaceOrInsert(next)
	}
	return nil
}

// All returns copies of every node in id order.
func (s *Store) All() []*ir.Node {
	out := make([]*ir.Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Ranked returns copies of up to limit eligible nodes in rank order.
// A limit of zero or less returns all of them.
func (s *Store) Ranked(limit int) []*ir.Node {
	var out []*ir.Node
	s.ranked.Ascend(func(n *ir.Node) bool {
		out = append(out, n.Clone())
		return limit <= 0 || len(out) < limit
	})
	return out
}

// Load replaces the store contents with nodes. The ids must form the dense
// range [0, len(nodes)) and keys must be unique. On error the store is left
// empty.
func (s *Store) Load(nodes []*ir.Node) error {
	sorted := make([]*ir.Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s.Reset()
	for _, n := range sorted {
		if err := s.Insert(n); err != nil {
			s.Reset()
			return fmt.Errorf("load node %d: %w", n.ID, err)
		}
	}
	return nil
}

// Reset removes every node.
func (s *Store) Reset() {
	s.nodes = nil
	s.index = make(map[ir.Key]int)
	s.ranked.Clear(false)
}

func (s *Store) node(id int) (*ir.Node, error) {
	if id < 0 || id >= len(s.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return s.nodes[id], nil
}
