package engine

import (
	"github.com/samber/lo"

	"github.com/roach88/lookahead/internal/ir"
)

// Terminated classifies a node that has just been selected and, if needed,
// expanded. children are the node's current children.
//
// A node is terminated when it carries a decisive winner or has no
// continuation. With settled set, a node whose children are all terminated
// is terminated as well.
func Terminated(n *ir.Node, children []*ir.Node, settled bool) bool {
	if n.Terminated || n.Winner != ir.NoSide {
		return true
	}
	if len(children) == 0 {
		return true
	}
	if settled {
		return lo.EveryBy(children, func(c *ir.Node) bool { return c.Terminated })
	}
	return false
}
