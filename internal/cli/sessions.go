package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lookahead/internal/ir"
	"github.com/roach88/lookahead/internal/store"
)

// SessionRow is one line of the sessions listing.
type SessionRow struct {
	ID       string  `json:"id"`
	Side     ir.Side `json:"side"`
	Root     string  `json:"root"`
	Consumed int     `json:"consumed"`
	Total    int     `json:"total"`
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored search sessions",
		Long: `List every session in the database with its work counters.

Examples:
  lookahead sessions
  lookahead sessions --db games.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(rootOpts, cmd)
		},
	}
}

func runSessions(opts *RootOptions, cmd *cobra.Command) error {
	if err := opts.requireConfig(); err != nil {
		return WrapExitError(ExitCommandError, "sessions", err)
	}
	st, err := store.Open(opts.Config.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	infos, err := st.List(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	rows := make([]SessionRow, len(infos))
	for i, info := range infos {
		rows[i] = SessionRow{
			ID:       info.ID,
			Side:     info.Key.Side,
			Root:     ir.ShortHashHex(info.Key.Fingerprint),
			Consumed: info.Summary.Consumed,
			Total:    info.Summary.Total,
		}
	}

	out := opts.formatter(cmd)
	if out.Format == "json" {
		return out.Success(rows)
	}

	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No sessions.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-6s  %-16s  %12s  %12s\n", "SESSION", "SIDE", "ROOT", "CONSUMED", "NODES")
	for _, r := range rows {
		fmt.Fprintf(w, "%-36s  %-6s  %-16s  %12s  %12s\n", r.ID, r.Side, r.Root, count(r.Consumed), count(r.Total))
	}
	return nil
}
