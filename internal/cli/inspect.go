package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/lookahead/internal/ir"
	"github.com/roach88/lookahead/internal/store"
	"github.com/roach88/lookahead/internal/xiangqi"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Side     string
	Position string
}

// InspectOutput describes one node of a stored session in context.
type InspectOutput struct {
	Side           ir.Side      `json:"side"`
	Root           string       `json:"root"`
	Consumed       int          `json:"consumed"`
	Total          int          `json:"total"`
	Node           *NodeBrief   `json:"node"`
	Parent         *NodeBrief   `json:"parent,omitempty"`
	Relatives      []int        `json:"relatives"`
	Children       []*NodeBrief `json:"children"`
	RootNode       *NodeBrief   `json:"root_node"`
	HighestUrgency *NodeBrief   `json:"highest_urgency_node,omitempty"`
	Deepest        *NodeBrief   `json:"deepest_node,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [node]",
		Short: "Show a node of a stored session",
		Long: `Show a node with its parent, relatives and ranked children, together with
the session root and its summary nodes.

The node is a numeric id or the short hash printed by other commands.
Without an argument the root is shown.

Examples:
  lookahead inspect
  lookahead inspect 42 --side bottom
  lookahead inspect 9f3c2a1b7d6e5f40 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "0"
			if len(args) == 1 {
				ref = args[0]
			}
			return runInspect(opts, ref, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Side, "side", "top", "side to move at the root (top|bottom)")
	cmd.Flags().StringVar(&opts.Position, "position", "initial", "root position fingerprint, or \"initial\"")

	return cmd
}

func runInspect(opts *InspectOptions, ref string, cmd *cobra.Command) error {
	if err := opts.requireConfig(); err != nil {
		return WrapExitError(ExitCommandError, "inspect", err)
	}
	side, err := parseSide(opts.Side)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --side", err)
	}
	board, err := parsePosition(opts.Position)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --position", err)
	}
	key := ir.SessionKey{Side: side, Fingerprint: board.Fingerprint()}

	st, err := store.Open(opts.Config.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	snap, err := st.Load(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitCommandError, "no such session", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load session", err)
	}

	id, err := resolveNode(ref, func(hash string) ([]int, error) {
		return st.FindByShortHash(ctx, key, hash)
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid node", err)
	}

	result, err := describe(snap, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid node", err)
	}

	out := opts.formatter(cmd)
	if out.Format == "json" {
		return out.Success(result)
	}
	writeInspectText(cmd.OutOrStdout(), result)
	return nil
}

// resolveNode accepts a numeric id or a 16-digit short hash. A short hash
// matching both parities resolves to the lower id.
func resolveNode(ref string, lookup func(hash string) ([]int, error)) (int, error) {
	if id, err := strconv.Atoi(ref); err == nil && len(ref) < 16 {
		return id, nil
	}
	ids, err := lookup(ref)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("no node with short hash %s", ref)
	}
	return ids[0], nil
}

// describe builds the inspect view of node id in snap.
func describe(snap *ir.Snapshot, id int) (*InspectOutput, error) {
	get := func(i int) *ir.Node {
		if i < 0 || i >= len(snap.Nodes) {
			return nil
		}
		return snap.Nodes[i]
	}
	n := get(id)
	if n == nil {
		return nil, fmt.Errorf("node %d not in session (%d nodes)", id, len(snap.Nodes))
	}

	children := lo.FilterMap(n.Children, func(cid int, _ int) (*ir.Node, bool) {
		c := get(cid)
		return c, c != nil
	})
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Urgency != children[j].Urgency {
			return children[i].Urgency > children[j].Urgency
		}
		return children[i].Depth < children[j].Depth
	})

	relatives := n.Relatives
	if relatives == nil {
		relatives = []int{}
	}
	return &InspectOutput{
		Side:           snap.Key.Side,
		Root:           ir.ShortHashHex(snap.Key.Fingerprint),
		Consumed:       snap.Consumed,
		Total:          len(snap.Nodes),
		Node:           brief(n),
		Parent:         brief(get(n.Parent)),
		Relatives:      relatives,
		Children:       lo.Map(children, func(c *ir.Node, _ int) *NodeBrief { return brief(c) }),
		RootNode:       brief(get(0)),
		HighestUrgency: brief(get(snap.Summary.HighestUrgency)),
		Deepest:        brief(get(snap.Summary.Deepest)),
	}, nil
}

func writeInspectText(w io.Writer, r *InspectOutput) {
	fmt.Fprintf(w, "Session %s (%s to move), consumed %s, %s nodes\n\n",
		r.Root, r.Side, count(r.Consumed), count(r.Total))

	writeBrief(w, "Node", r.Node)
	if b, err := xiangqi.Parse(r.Node.Fingerprint); err == nil {
		fmt.Fprintln(w, b.String())
	}
	fmt.Fprintln(w)
	if r.Parent != nil {
		writeBrief(w, "Parent", r.Parent)
	}
	if len(r.Relatives) > 0 {
		fmt.Fprintf(w, "Relatives: %s\n", joinIDs(r.Relatives))
	}
	fmt.Fprintf(w, "Children (%d):\n", len(r.Children))
	for _, c := range r.Children {
		writeBrief(w, " ", c)
	}
	fmt.Fprintln(w)
	writeBrief(w, "Root", r.RootNode)
	if r.HighestUrgency != nil {
		writeBrief(w, "Highest urgency", r.HighestUrgency)
	}
	if r.Deepest != nil {
		writeBrief(w, "Deepest", r.Deepest)
	}
}

func writeBrief(w io.Writer, label string, n *NodeBrief) {
	state := "closed"
	switch {
	case n.Terminated:
		state = "terminated"
	case n.Open:
		state = "open"
	}
	fmt.Fprintf(w, "%s #%d [%s] depth %d eval %s urgency %s %s",
		label, n.ID, n.ShortHash, n.Depth, printer.Sprintf("%.0f", n.Evaluation), urgency(n.Urgency), state)
	if n.Winner != ir.NoSide {
		fmt.Fprintf(w, " winner %s", n.Winner)
	}
	fmt.Fprintln(w)
}
