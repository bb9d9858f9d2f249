package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/lookahead/internal/config"
)

// RootOptions holds global flags and the resolved configuration.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
	Format     string // "json" | "text"

	// Config is resolved in PersistentPreRunE.
	Config *config.Config

	// LogWriter receives structured logs; defaults to stderr.
	LogWriter io.Writer

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.ValidFormats

// NewRootCommand creates the root command for the lookahead CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

// Execute runs the CLI with os.Args, reports a failed command in the
// selected output format and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd, opts := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	if !isReported(err) {
		f := opts.formatter(cmd)
		if !isValidFormat(f.Format) {
			f.Format = config.DefaultFormat
		}
		_ = f.Error(err)
	}
	return GetExitCode(err)
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:   "lookahead",
		Short: "lookahead - resumable best-first game search",
		Long: `Incremental best-first search over a two-player board game.

Each search session is keyed by the side to move and the root position.
Work is checkpointed to SQLite and later calls extend the same tree.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", config.DefaultFormat, "output format (json|text)")
	flags.String("db", config.DefaultDB, "SQLite database path")
	_ = opts.v.BindPFlag(config.KeyVerbose, flags.Lookup("verbose"))
	_ = opts.v.BindPFlag(config.KeyFormat, flags.Lookup("format"))
	_ = opts.v.BindPFlag(config.KeyDB, flags.Lookup("db"))

	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd, opts
}

// resolve loads the configuration and sets up logging.
func (o *RootOptions) resolve() error {
	if err := config.ReadFile(o.v, o.ConfigFile); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	c, err := config.Load(o.v)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = c
	o.Format = c.Format
	o.Verbose = c.Verbose
	setupLogging(o.logWriter(), c.Verbose)
	return nil
}

func (o *RootOptions) logWriter() io.Writer {
	if o.LogWriter != nil {
		return o.LogWriter
	}
	return os.Stderr
}

// setupLogging installs the global zerolog logger.
func setupLogging(w io.Writer, verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// formatter builds an OutputFormatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) requireConfig() error {
	if o.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}
	if !isValidFormat(o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	return nil
}
