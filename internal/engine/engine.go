package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/roach88/lookahead/internal/frontier"
	"github.com/roach88/lookahead/internal/ir"
)

// DefaultCheckpointInterval is the number of steps between checkpoints when
// a request does not set one.
const DefaultCheckpointInterval = 1000

// Session is the checkpoint contract the engine drives.
//
// Initialize loads the session's node set into Nodes (or seeds it with root)
// and returns the consumed-work counter. Checkpoint persists the current node
// set atomically; it may be called any number of times.
type Session interface {
	Initialize(ctx context.Context, key ir.SessionKey, root *ir.Node) (int, error)
	Checkpoint(ctx context.Context, consumed int) error
	Nodes() *frontier.Store
}

// StopReason explains why a run returned.
type StopReason string

const (
	// StopBudget means the work budget was spent.
	StopBudget StopReason = "budget"

	// StopExhausted means no open, non-terminated node remained.
	StopExhausted StopReason = "exhausted"

	// StopEarly means the stop predicate ended the run at a checkpoint.
	StopEarly StopReason = "early"

	// StopCancelled means the context was cancelled between steps.
	StopCancelled StopReason = "cancelled"
)

// Request describes one invocation of the search.
type Request struct {
	// Start is the root position.
	Start Position

	// Side is the side to move at the root.
	Side ir.Side

	// Budget is the number of additional steps this call may execute.
	Budget int

	// UntilTotal, when positive, replaces Budget with the number of steps
	// needed to bring the session's consumed total up to UntilTotal.
	UntilTotal int

	// CheckpointInterval is the number of consumed steps between
	// checkpoints. Zero selects DefaultCheckpointInterval.
	CheckpointInterval int
}

// Result is the outcome of a run.
type Result struct {
	RunID    string
	Key      ir.SessionKey
	Nodes    []*ir.Node
	Consumed int
	Steps    int
	Stopped  StopReason
	Best     *ir.Node
	Summary  ir.Summary
}

// Engine runs the best-first search over a session's node store.
//
// Each step selects the best node, expands it if it has no children yet,
// rescores it from its children and, when its urgency moved, forces its
// parent to the front and reopens its relatives. Parent updates are lazy:
// the parent is only rescored when it is selected again.
//
// Thread-safety: an Engine and its session must be driven from one goroutine.
type Engine struct {
	rules    Rules
	session  Session
	settled  bool
	stopper  Stopper
	runIDGen RunIDGenerator

	// Per-run state.
	key      ir.SessionKey
	rootEval float64
	nodes    *frontier.Store
}

// Option configures an Engine.
type Option func(*Engine)

// WithTerminateOnSettledChildren enables terminating a node once all of its
// children are terminated. Disabled by default.
func WithTerminateOnSettledChildren(enabled bool) Option {
	return func(e *Engine) {
		e.settled = enabled
	}
}

// WithStopper installs an early-stop predicate checked at each checkpoint.
func WithStopper(s Stopper) Option {
	return func(e *Engine) {
		e.stopper = s
	}
}

// WithRunIDGenerator overrides the run id generator (UUIDv7 by default).
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDGen = g
	}
}

// New creates an Engine over the given rules engine and session.
func New(rules Rules, session Session, opts ...Option) *Engine {
	e := &Engine{
		rules:    rules,
		session:  session,
		runIDGen: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunSearch is a convenience wrapper around New(...).Run.
func RunSearch(ctx context.Context, rules Rules, session Session, req Request, opts ...Option) (*Result, error) {
	return New(rules, session, opts...).Run(ctx, req)
}

// Run loads or seeds the session, executes up to the requested number of
// steps and checkpoints along the way.
//
// A zero budget returns the loaded node set untouched and writes nothing.
// Cancellation of ctx stops the run between steps; the state reached so far
// is checkpointed and returned with StopCancelled.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if !req.Side.Valid() {
		return nil, fmt.Errorf("run search: invalid side %v", req.Side)
	}
	interval := req.CheckpointInterval
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}

	runID := e.runIDGen.Generate()
	logger := zerolog.Ctx(ctx).With().Str("run", runID).Logger()

	root, err := e.rootNode(req.Start, req.Side)
	if err != nil {
		return nil, err
	}
	e.key = ir.SessionKey{Side: req.Side, Fingerprint: root.Fingerprint}
	logger = logger.With().Str("session", ir.ShortHashHex(root.Fingerprint)).Logger()

	consumed, err := e.session.Initialize(ctx, e.key, root)
	if err != nil {
		return nil, NewCollaboratorError(-1, "initialize session", err)
	}
	e.nodes = e.session.Nodes()
	stored, err := e.nodes.Get(0)
	if err != nil {
		return nil, NewConsistencyError(0, "root", err)
	}
	e.rootEval = stored.Evaluation

	budget := NewBudget(req.Budget)
	if req.UntilTotal > 0 {
		budget = BudgetUntil(req.UntilTotal, consumed)
	}
	logger.Info().
		Int("consumed", consumed).
		Int("budget", budget.Limit()).
		Int("nodes", e.nodes.Len()).
		Msg("search-starting")

	clock := NewClockAt(consumed)
	reason := StopBudget
	lastCheckpoint := consumed

loop:
	for !budget.Exhausted() {
		if ctx.Err() != nil {
			reason = StopCancelled
			break
		}
		best := e.nodes.Best()
		if best == nil {
			reason = StopExhausted
			break
		}
		budget.Take()
		if err := e.step(ctx, best.ID); err != nil {
			return nil, err
		}
		now := clock.Next()
		logger.Debug().Int("node", best.ID).Int("consumed", now).Msg("step")

		if now%interval != 0 {
			continue
		}
		if err := e.checkpoint(ctx, logger, now); err != nil {
			return nil, err
		}
		lastCheckpoint = now
		if e.stopper != nil {
			stop, err := e.stopper.ShouldStop(e.nodes, now)
			if err != nil {
				return nil, err
			}
			if stop {
				reason = StopEarly
				break loop
			}
		}
	}

	consumed = clock.Current()
	if budget.Used() > 0 && lastCheckpoint != consumed {
		// Checkpoint with a context that survives cancellation so the
		// steps already taken are not lost.
		if err := e.checkpoint(context.WithoutCancel(ctx), logger, consumed); err != nil {
			return nil, err
		}
	}

	all := e.nodes.All()
	res := &Result{
		RunID:    runID,
		Key:      e.key,
		Nodes:    all,
		Consumed: consumed,
		Steps:    budget.Used(),
		Stopped:  reason,
		Best:     e.nodes.Best(),
		Summary:  ir.Summarize(all, consumed),
	}
	logger.Info().
		Int("steps", res.Steps).
		Int("consumed", res.Consumed).
		Int("nodes", len(all)).
		Str("stopped", string(reason)).
		Msg("search-finished")
	return res, nil
}

func (e *Engine) checkpoint(ctx context.Context, logger zerolog.Logger, consumed int) error {
	if err := e.session.Checkpoint(ctx, consumed); err != nil {
		return NewCollaboratorError(-1, "checkpoint", err)
	}
	logger.Info().Int("consumed", consumed).Int("nodes", e.nodes.Len()).Msg("checkpoint")
	return nil
}

// rootNode evaluates the start position and builds the seed node.
func (e *Engine) rootNode(start Position, side ir.Side) (*ir.Node, error) {
	winner, eval, err := e.rules.Evaluate(start)
	if err != nil {
		return nil, NewCollaboratorError(0, "evaluate", err)
	}
	threat, err := e.rules.Threats(start, side)
	if err != nil {
		return nil, NewCollaboratorError(0, "threats", err)
	}
	urgency, err := Score(ScoreInput{
		Depth:          0,
		Evaluation:     eval,
		RootEvaluation: eval,
		RootSide:       side,
		Winner:         winner,
		Threat:         threat,
	})
	if err != nil {
		return nil, err
	}
	return &ir.Node{
		ID:          0,
		Fingerprint: e.rules.Fingerprint(start),
		Parity:      0,
		Depth:       0,
		Evaluation:  eval,
		Winner:      winner,
		Urgency:     urgency,
		Open:        true,
		Parent:      ir.NoParent,
	}, nil
}

// step runs SELECT, EXPAND, RESCORE and PROPAGATE for one node.
func (e *Engine) step(ctx context.Context, id int) error {
	// SELECT
	if err := e.nodes.Reinsert(id, func(n *ir.Node) { n.Open = false }); err != nil {
		return storeError(id, "selected", err)
	}
	n, err := e.nodes.Get(id)
	if err != nil {
		return storeError(id, "selected", err)
	}

	// EXPAND
	if len(n.Children) == 0 && n.Winner == ir.NoSide && !n.Terminated {
		children, err := e.expand(ctx, n)
		if err != nil {
			return err
		}
		if err := e.nodes.Reinsert(id, func(n *ir.Node) { n.Children = children }); err != nil {
			return storeError(id, "selected", err)
		}
		n.Children = children
	}

	// RESCORE
	children := make([]*ir.Node, 0, len(n.Children))
	for _, cid := range n.Children {
		c, err := e.nodes.Get(cid)
		if err != nil {
			return NewConsistencyError(id, "child", err)
		}
		children = append(children, c)
	}
	terminated := Terminated(n, children, e.settled)
	urgency := n.Urgency
	if len(children) > 0 {
		urgency = -lo.Max(lo.Map(children, func(c *ir.Node, _ int) float64 { return c.Urgency }))
	}
	changed := urgency != n.Urgency
	err = e.nodes.Reinsert(id, func(n *ir.Node) {
		n.Urgency = urgency
		n.Terminated = terminated
	})
	if err != nil {
		return storeError(id, "selected", err)
	}

	// PROPAGATE
	if !changed {
		return nil
	}
	if !n.IsRoot() {
		err := e.nodes.Reinsert(n.Parent, func(p *ir.Node) {
			p.Open = true
			p.Urgency = ir.Sentinel
		})
		if err != nil {
			return storeError(id, "parent", err)
		}
	}
	for _, rid := range n.Relatives {
		if err := e.nodes.Reinsert(rid, func(r *ir.Node) { r.Open = true }); err != nil {
			return storeError(id, "relative", err)
		}
	}
	zerolog.Ctx(ctx).Debug().
		Int("node", id).
		Float64("urgency", urgency).
		Int("relatives", len(n.Relatives)).
		Msg("urgency-propagated")
	return nil
}

// expand generates the children of n. Positions already in the store are
// reused and gain n as a relative; new positions get the next dense id.
func (e *Engine) expand(ctx context.Context, n *ir.Node) ([]int, error) {
	pos, err := e.rules.Position(n.Fingerprint)
	if err != nil {
		return nil, NewCollaboratorError(n.ID, "position", err)
	}
	side := ir.ToMove(e.key.Side, n.Parity)
	moves, err := e.rules.LegalMoves(pos, side)
	if err != nil {
		return nil, NewCollaboratorError(n.ID, "legal moves", err)
	}

	parity := 1 - n.Parity
	depth := n.Depth + 1
	children := make([]int, 0, len(moves))
	created := 0
	for _, m := range moves {
		next, err := e.rules.Apply(pos, m)
		if err != nil {
			return nil, NewCollaboratorError(n.ID, "apply", err)
		}
		key := ir.Key{Fingerprint: e.rules.Fingerprint(next), Parity: parity}

		if existing := e.nodes.Exists(key); existing != nil {
			if existing.Parent != n.ID && !existing.HasRelative(n.ID) {
				err := e.nodes.Reinsert(existing.ID, func(x *ir.Node) {
					x.Relatives = append(x.Relatives, n.ID)
				})
				if err != nil {
					return nil, storeError(existing.ID, "existing", err)
				}
			}
			children = append(children, existing.ID)
			continue
		}

		winner, eval, err := e.rules.Evaluate(next)
		if err != nil {
			return nil, NewCollaboratorError(n.ID, "evaluate", err)
		}
		threat, err := e.rules.Threats(next, side.Opponent())
		if err != nil {
			return nil, NewCollaboratorError(n.ID, "threats", err)
		}
		urgency, err := Score(ScoreInput{
			Depth:          depth,
			Evaluation:     eval,
			RootEvaluation: e.rootEval,
			RootSide:       e.key.Side,
			Winner:         winner,
			Threat:         threat,
		})
		if err != nil {
			var re *RuntimeError
			if errors.As(err, &re) {
				re.NodeID = n.ID
			}
			return nil, err
		}

		child := &ir.Node{
			ID:          e.nodes.NextID(),
			Fingerprint: key.Fingerprint,
			Parity:      parity,
			Depth:       depth,
			Evaluation:  eval,
			Winner:      winner,
			Urgency:     urgency,
			Open:        true,
			Parent:      n.ID,
		}
		if err := e.nodes.Insert(child); err != nil {
			return nil, storeError(child.ID, "child", err)
		}
		children = append(children, child.ID)
		created++
	}

	zerolog.Ctx(ctx).Debug().
		Int("node", n.ID).
		Int("moves", len(moves)).
		Int("created", created).
		Msg("expanded")
	return lo.Uniq(children), nil
}
