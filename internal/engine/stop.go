package engine

import (
	"slices"

	"github.com/samber/lo"

	"github.com/roach88/lookahead/internal/ir"
)

// NodeReader is the read side of the node store used by stop predicates.
type NodeReader interface {
	Get(id int) (*ir.Node, error)
	Len() int
}

// Stopper decides, at each checkpoint, whether a run should end before its
// budget is spent. An early stop is a clean outcome, not an error.
type Stopper interface {
	ShouldStop(nodes NodeReader, consumed int) (bool, error)
}

// StopperFunc adapts a function to the Stopper interface.
type StopperFunc func(nodes NodeReader, consumed int) (bool, error)

// ShouldStop implements Stopper.
func (f StopperFunc) ShouldStop(nodes NodeReader, consumed int) (bool, error) {
	return f(nodes, consumed)
}

// PrincipalLine follows the highest-urgency child from the root and returns
// the node ids along the way, root first. Ties go to the lowest id. The line
// stops at an unexpanded node, on a repeated node, or after maxLen nodes
// (maxLen <= 0 means unbounded).
func PrincipalLine(nodes NodeReader, maxLen int) ([]int, error) {
	if nodes.Len() == 0 {
		return nil, nil
	}
	line := []int{0}
	seen := map[int]bool{0: true}
	cur, err := nodes.Get(0)
	if err != nil {
		return nil, NewConsistencyError(0, "root", err)
	}
	for len(cur.Children) > 0 && (maxLen <= 0 || len(line) < maxLen) {
		children := make([]*ir.Node, 0, len(cur.Children))
		for _, id := range cur.Children {
			c, err := nodes.Get(id)
			if err != nil {
				return nil, NewConsistencyError(cur.ID, "child", err)
			}
			children = append(children, c)
		}
		next := lo.MaxBy(children, func(a, b *ir.Node) bool {
			return a.Urgency > b.Urgency || (a.Urgency == b.Urgency && a.ID < b.ID)
		})
		if seen[next.ID] {
			break
		}
		seen[next.ID] = true
		line = append(line, next.ID)
		cur = next
	}
	return line, nil
}

// StableLeader stops a run once the principal line has stayed the same for
// a number of successive checkpoints.
type StableLeader struct {
	// Checkpoints is how many unchanged checkpoints end the run.
	Checkpoints int

	// Depth bounds the compared line length; zero compares the whole line.
	Depth int

	last   []int
	stable int
}

// NewStableLeader creates a StableLeader predicate.
func NewStableLeader(checkpoints, depth int) *StableLeader {
	return &StableLeader{Checkpoints: checkpoints, Depth: depth}
}

// ShouldStop implements Stopper.
func (s *StableLeader) ShouldStop(nodes NodeReader, _ int) (bool, error) {
	if s.Checkpoints <= 0 {
		return false, nil
	}
	line, err := PrincipalLine(nodes, s.Depth)
	if err != nil {
		return false, err
	}
	if s.last != nil && slices.Equal(line, s.last) {
		s.stable++
	} else {
		s.stable = 0
	}
	s.last = line
	return s.stable >= s.Checkpoints, nil
}
