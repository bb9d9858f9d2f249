package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/lookahead/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool
	Filter   string
	Parallel int
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarises a scenario run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run search scenarios",
		Long: `Run every YAML scenario under <scenarios-dir> and check its assertions.

Scenarios run against a fresh in-memory database. A scenario named
foo.yaml is also compared against golden/foo.golden when that file exists.

Exit status is 0 when everything passes, 1 when a scenario fails and 2
when the directory or filter is unusable.

Examples:
  lookahead test ./scenarios
  lookahead test ./scenarios --filter "xiangqi-*" --parallel 8
  lookahead test ./scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.Update, "update", false, "rewrite golden files from this run")
	flags.StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")
	flags.IntVar(&opts.Parallel, "parallel", 4, "scenarios run at once (0 = no limit)")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, "scenarios directory not found: "+dir)
	}
	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot list scenarios", err)
	}

	results := make([]ScenarioResult, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for i, file := range files {
		g.Go(func() error {
			results[i] = checkScenario(ctx, file, opts.Update)
			return nil
		})
	}
	_ = g.Wait()

	passed := lo.CountBy(results, func(r ScenarioResult) bool { return r.Pass })
	summary := TestResult{
		Scenarios: results,
		Passed:    passed,
		Failed:    len(results) - passed,
		Total:     len(results),
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		err = writeTestJSON(w, summary)
	} else {
		err = writeTestText(w, summary, opts.Update)
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return scenariosFailed(summary.Failed)
	}
	return nil
}

// findScenarioFiles walks dir for .yaml and .yml files, keeping those whose
// base name (without extension) matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// checkScenario runs one file. Load and run failures are reported as a
// failed scenario named after the file.
func checkScenario(ctx context.Context, file string, update bool) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}
	out := ScenarioResult{Name: scenario.Name}

	result, err := harness.Run(ctx, scenario)
	if err != nil {
		out.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return out
	}
	out.Errors = append(out.Errors, result.Errors...)
	if err := compareGolden(goldenFilePath(file), harness.SnapshotOf(result), update); err != nil {
		out.Errors = append(out.Errors, err.Error())
	}
	out.Pass = len(out.Errors) == 0
	return out
}

var errGoldenMismatch = errors.New("node set does not match golden file (run with --update to regenerate)")

// compareGolden checks snap against the golden file at path, or rewrites it
// when update is set. A missing golden file is not a failure.
func compareGolden(path string, snap harness.Snapshot, update bool) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("update golden file: %w", err)
		}
		return os.WriteFile(path, data, 0o644)
	}

	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("read golden file: %w", err)
	case !bytes.Equal(bytes.TrimSpace(want), data):
		return errGoldenMismatch
	}
	return nil
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(file string) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(filepath.Dir(file), "golden", name+".golden")
}

// scenariosFailed is the exit error for a run whose summary was already written.
func scenariosFailed(n int) *ExitError {
	return &ExitError{
		Code:     ExitFailure,
		Message:  fmt.Sprintf("%d scenario(s) failed", n),
		Reported: true,
	}
}

func writeTestJSON(w io.Writer, result TestResult) error {
	if result.Scenarios == nil {
		result.Scenarios = []ScenarioResult{}
	}
	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func writeTestText(w io.Writer, result TestResult, updated bool) error {
	if result.Total == 0 {
		_, err := fmt.Fprintln(w, "No scenarios found.")
		return err
	}

	for _, r := range result.Scenarios {
		switch {
		case r.Pass && updated:
			fmt.Fprintf(w, "✓ %s (golden updated)\n", r.Name)
		case r.Pass:
			fmt.Fprintf(w, "✓ %s\n", r.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", r.Name)
			for _, e := range r.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
	return nil
}
