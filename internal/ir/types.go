package ir

import "math"

// Sentinel is the magnitude used for decisive urgencies and for forcing a
// parent back to the top of the frontier.
const Sentinel = 2497866.0

// NoParent marks the root node.
const NoParent = -1

// IsSentinel reports whether u is one of the sentinel values.
func IsSentinel(u float64) bool {
	return math.Abs(u) == Sentinel
}

// Key is the deduplication key of a node.
type Key struct {
	Fingerprint string `json:"fingerprint"`
	Parity      uint8  `json:"parity"`
}

// Node is one explored position in the search graph.
//
// Nodes are stored in an arena and addressed by ID. Parent, Relatives and
// Children hold ids into the same arena.
type Node struct {
	ID          int     `json:"id"`
	Fingerprint string  `json:"fingerprint"`
	Parity      uint8   `json:"parity"`
	Depth       int     `json:"depth"`
	Evaluation  float64 `json:"evaluation"`
	Winner      Side    `json:"winner"`
	Urgency     float64 `json:"urgency"`
	Open        bool    `json:"open"`
	Terminated  bool    `json:"terminated"`
	Parent      int     `json:"parent"`
	Relatives   []int   `json:"relatives,omitempty"`
	Children    []int   `json:"children,omitempty"`
}

// Key returns the node's deduplication key.
func (n *Node) Key() Key {
	return Key{Fingerprint: n.Fingerprint, Parity: n.Parity}
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.Parent == NoParent
}

// Eligible reports whether n may be selected.
func (n *Node) Eligible() bool {
	return n.Open && !n.Terminated
}

// HasRelative reports whether id is already listed as a relative.
func (n *Node) HasRelative(id int) bool {
	for _, r := range n.Relatives {
		if r == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	if n.Relatives != nil {
		c.Relatives = append([]int(nil), n.Relatives...)
	}
	if n.Children != nil {
		c.Children = append([]int(nil), n.Children...)
	}
	return &c
}

// SessionKey identifies a search session.
type SessionKey struct {
	Side        Side   `json:"side"`
	Fingerprint string `json:"fingerprint"`
}

// Summary holds the pointers recorded with every checkpoint.
// Node pointers are -1 when no node qualifies.
type Summary struct {
	Total          int `json:"total"`
	Consumed       int `json:"consumed"`
	HighestUrgency int `json:"highest_urgency_node"`
	Deepest        int `json:"deepest_node"`
}

// Snapshot is the unit of persistence: the full node set plus counters.
type Snapshot struct {
	Key      SessionKey `json:"key"`
	Nodes    []*Node    `json:"nodes"`
	Consumed int        `json:"consumed"`
	Summary  Summary    `json:"summary"`
}

// Summarize computes the checkpoint summary for a node set. The
// highest-urgency pointer skips nodes whose urgency is a sentinel value.
func Summarize(nodes []*Node, consumed int) Summary {
	s := Summary{
		Total:          len(nodes),
		Consumed:       consumed,
		HighestUrgency: -1,
		Deepest:        -1,
	}
	var best, deepest *Node
	for _, n := range nodes {
		if deepest == nil || n.Depth > deepest.Depth {
			deepest = n
		}
		if IsSentinel(n.Urgency) {
			continue
		}
		if best == nil || n.Urgency > best.Urgency {
			best = n
		}
	}
	if best != nil {
		s.HighestUrgency = best.ID
	}
	if deepest != nil {
		s.Deepest = deepest.ID
	}
	return s
}
