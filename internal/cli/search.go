package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/roach88/lookahead/internal/config"
	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
	"github.com/roach88/lookahead/internal/session"
	"github.com/roach88/lookahead/internal/store"
	"github.com/roach88/lookahead/internal/xiangqi"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Side     string
	Position string
	Budget   int
	Until    int

	// RunIDs overrides run id generation (tests).
	RunIDs engine.RunIDGenerator
}

// SearchOutput is the search command's result payload.
type SearchOutput struct {
	RunID    string     `json:"run_id"`
	Side     ir.Side    `json:"side"`
	Root     string     `json:"root"`
	Consumed int        `json:"consumed"`
	Steps    int        `json:"steps"`
	Nodes    int        `json:"nodes"`
	Stopped  string     `json:"stopped"`
	Best     *NodeBrief `json:"best,omitempty"`
	Line     []int      `json:"line"`
	Summary  ir.Summary `json:"summary"`
}

// NodeBrief is a one-line node description.
type NodeBrief struct {
	ID          int     `json:"id"`
	ShortHash   string  `json:"short_hash"`
	Depth       int     `json:"depth"`
	Parity      uint8   `json:"parity"`
	Evaluation  float64 `json:"evaluation"`
	Urgency     float64 `json:"urgency"`
	Winner      ir.Side `json:"winner"`
	Open        bool    `json:"open"`
	Terminated  bool    `json:"terminated"`
	Fingerprint string  `json:"fingerprint"`
}

func brief(n *ir.Node) *NodeBrief {
	if n == nil {
		return nil
	}
	return &NodeBrief{
		ID:          n.ID,
		ShortHash:   ir.ShortHashHex(n.Fingerprint),
		Depth:       n.Depth,
		Parity:      n.Parity,
		Evaluation:  n.Evaluation,
		Urgency:     n.Urgency,
		Winner:      n.Winner,
		Open:        n.Open,
		Terminated:  n.Terminated,
		Fingerprint: n.Fingerprint,
	}
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run or resume a search session",
		Long: `Run best-first search steps for a (side, position) session.

The session is loaded from the database if it exists, otherwise it is seeded
with the root position. Progress is checkpointed every --checkpoint-interval
steps and at the end of the run. Ctrl-C stops between steps and keeps the
work done so far.

Examples:
  lookahead search --budget 5000
  lookahead search --side bottom --until 20000 --db games.db
  lookahead search --position <90-char board> --stable-checkpoints 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Side, "side", "top", "side to move at the root (top|bottom)")
	flags.StringVar(&opts.Position, "position", "initial", "root position fingerprint, or \"initial\"")
	flags.IntVar(&opts.Budget, "budget", 0, "number of additional steps to run")
	flags.IntVar(&opts.Until, "until", 0, "run until the session has consumed this many steps in total")
	flags.Int("checkpoint-interval", config.DefaultCheckpointInterval, "steps between checkpoints")
	flags.Int("stable-checkpoints", 0, "stop once the principal line is unchanged for this many checkpoints (0 = off)")
	flags.Int("pv-depth", config.DefaultPVDepth, "principal line length compared for early stop and printed")
	flags.Bool("settled", false, "terminate nodes whose children are all terminated")
	_ = rootOpts.v.BindPFlag(config.KeyCheckpointInterval, flags.Lookup("checkpoint-interval"))
	_ = rootOpts.v.BindPFlag(config.KeyStableCheckpoints, flags.Lookup("stable-checkpoints"))
	_ = rootOpts.v.BindPFlag(config.KeyPVDepth, flags.Lookup("pv-depth"))
	_ = rootOpts.v.BindPFlag(config.KeySettled, flags.Lookup("settled"))

	return cmd
}

func runSearch(opts *SearchOptions, cmd *cobra.Command) error {
	if err := opts.requireConfig(); err != nil {
		return WrapExitError(ExitCommandError, "search", err)
	}
	cfg := opts.Config
	out := opts.formatter(cmd)

	side, err := parseSide(opts.Side)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --side", err)
	}
	board, err := parsePosition(opts.Position)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --position", err)
	}
	if opts.Budget < 0 || opts.Until < 0 {
		return NewExitError(ExitCommandError, "--budget and --until must not be negative")
	}
	if opts.Budget > 0 && opts.Until > 0 {
		return NewExitError(ExitCommandError, "--budget and --until are exclusive")
	}
	if opts.Budget == 0 && opts.Until == 0 {
		return NewExitError(ExitCommandError, "one of --budget or --until is required")
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("close-database")
		}
	}()

	ctx, cancel := signalContext(cmd)
	defer cancel()
	ctx = log.Logger.WithContext(ctx)

	engOpts := []engine.Option{engine.WithTerminateOnSettledChildren(cfg.TerminateOnSettledChildren)}
	if cfg.StableCheckpoints > 0 {
		engOpts = append(engOpts, engine.WithStopper(engine.NewStableLeader(cfg.StableCheckpoints, cfg.PVDepth)))
	}
	if opts.RunIDs != nil {
		engOpts = append(engOpts, engine.WithRunIDGenerator(opts.RunIDs))
	}

	req := engine.Request{
		Start:              board,
		Side:               side,
		Budget:             opts.Budget,
		UntilTotal:         opts.Until,
		CheckpointInterval: cfg.CheckpointInterval,
	}
	sess := session.New(st)
	res, err := engine.RunSearch(ctx, xiangqi.Rules{}, sess, req, engOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "search failed", err)
	}

	line, err := engine.PrincipalLine(sess.Nodes(), cfg.PVDepth)
	if err != nil {
		return WrapExitError(ExitFailure, "principal line", err)
	}

	result := SearchOutput{
		RunID:    res.RunID,
		Side:     res.Key.Side,
		Root:     ir.ShortHashHex(res.Key.Fingerprint),
		Consumed: res.Consumed,
		Steps:    res.Steps,
		Nodes:    len(res.Nodes),
		Stopped:  string(res.Stopped),
		Best:     brief(res.Best),
		Line:     line,
		Summary:  res.Summary,
	}
	if out.Format == "json" {
		return out.Success(result)
	}
	writeSearchText(cmd.OutOrStdout(), result)
	return nil
}

func writeSearchText(w io.Writer, r SearchOutput) {
	fmt.Fprintf(w, "Session %s (%s to move)\n", r.Root, r.Side)
	fmt.Fprintf(w, "  steps:    %s (consumed %s)\n", count(r.Steps), count(r.Consumed))
	fmt.Fprintf(w, "  nodes:    %s\n", count(r.Nodes))
	fmt.Fprintf(w, "  stopped:  %s\n", r.Stopped)
	if r.Best != nil {
		fmt.Fprintf(w, "  best:     #%d depth %d urgency %s\n", r.Best.ID, r.Best.Depth, urgency(r.Best.Urgency))
	} else {
		fmt.Fprintln(w, "  best:     none (frontier exhausted)")
	}
	fmt.Fprintf(w, "  line:     %s\n", joinIDs(r.Line))
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, " > ")
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("stopping-search")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func parseSide(text string) (ir.Side, error) {
	side, err := ir.ParseSide(text)
	if err != nil {
		return ir.NoSide, err
	}
	if !side.Valid() {
		return ir.NoSide, errors.New("side must be top or bottom")
	}
	return side, nil
}

func parsePosition(text string) (xiangqi.Board, error) {
	if text == "" || text == "initial" {
		return xiangqi.Initial(), nil
	}
	return xiangqi.Parse(text)
}
