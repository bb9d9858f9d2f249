package cli

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
	"github.com/roach88/lookahead/internal/xiangqi"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// decode unmarshals the data payload of a JSON CLI response into v.
func decode(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestSearchCreatesAndResumesSession(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "--format", "json", "search", "--budget", "10", "--checkpoint-interval", "5")
	require.NoError(t, err)
	var first SearchOutput
	decode(t, out, &first)

	assert.Equal(t, ir.Top, first.Side)
	assert.Equal(t, ir.ShortHashHex(xiangqi.InitialFingerprint()), first.Root)
	assert.Equal(t, 10, first.Consumed)
	assert.Equal(t, 10, first.Steps)
	assert.Equal(t, string(engine.StopBudget), first.Stopped)
	assert.Greater(t, first.Nodes, 44)
	assert.Equal(t, first.Nodes, first.Summary.Total)
	require.NotEmpty(t, first.Line)
	assert.Equal(t, 0, first.Line[0])

	out, err = execute(t, db, "--format", "json", "search", "--budget", "5")
	require.NoError(t, err)
	var second SearchOutput
	decode(t, out, &second)
	assert.Equal(t, 15, second.Consumed)
	assert.Equal(t, 5, second.Steps)
	assert.GreaterOrEqual(t, second.Nodes, first.Nodes)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestSearchUntilTotal(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, db, "search", "--budget", "6")
	require.NoError(t, err)

	out, err := execute(t, db, "--format", "json", "search", "--until", "8")
	require.NoError(t, err)
	var r SearchOutput
	decode(t, out, &r)
	assert.Equal(t, 8, r.Consumed)
	assert.Equal(t, 2, r.Steps)

	// Already past the target: nothing runs.
	out, err = execute(t, db, "--format", "json", "search", "--until", "4")
	require.NoError(t, err)
	decode(t, out, &r)
	assert.Equal(t, 8, r.Consumed)
	assert.Equal(t, 0, r.Steps)
}

func TestSearchSidesAreSeparateSessions(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, db, "search", "--budget", "3")
	require.NoError(t, err)
	out, err := execute(t, db, "--format", "json", "search", "--side", "bottom", "--budget", "2")
	require.NoError(t, err)

	var r SearchOutput
	decode(t, out, &r)
	assert.Equal(t, ir.Bottom, r.Side)
	assert.Equal(t, 2, r.Consumed)
}

func TestSearchTextOutput(t *testing.T) {
	out, err := execute(t, tempDB(t), "search", "--budget", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Session "+ir.ShortHashHex(xiangqi.InitialFingerprint()))
	assert.Contains(t, out, "top to move")
	assert.Contains(t, out, "stopped:  budget")
	assert.Contains(t, out, "line:     #0")
}

func TestSearchWithFixedRunID(t *testing.T) {
	rootOpts := &RootOptions{Format: "json"}
	opts := &SearchOptions{RootOptions: rootOpts, Side: "top", Position: "initial", Budget: 1, RunIDs: engine.NewFixedGenerator("run-fixed")}
	require.NoError(t, rootOpts.setConfigForTest(tempDB(t)))

	cmd := NewSearchCommand(rootOpts)
	buf := captureOutput(cmd)
	require.NoError(t, runSearch(opts, cmd))

	var r SearchOutput
	decode(t, buf.String(), &r)
	assert.Equal(t, "run-fixed", r.RunID)
}

func TestSearchRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad side", []string{"search", "--side", "left", "--budget", "1"}, "invalid --side"},
		{"no side", []string{"search", "--side", "none", "--budget", "1"}, "invalid --side"},
		{"bad position", []string{"search", "--position", "xyz", "--budget", "1"}, "invalid --position"},
		{"negative budget", []string{"search", "--budget", "-1"}, "must not be negative"},
		{"budget and until", []string{"search", "--budget", "1", "--until", "3"}, "exclusive"},
		{"no budget", []string{"search"}, "one of --budget or --until is required"},
		{"zero budget", []string{"search", "--budget", "0"}, "one of --budget or --until is required"},
		{"bad interval", []string{"search", "--budget", "1", "--checkpoint-interval", "0"}, "checkpoint_interval must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tempDB(t), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestParsePosition(t *testing.T) {
	b, err := parsePosition("")
	require.NoError(t, err)
	assert.Equal(t, xiangqi.Initial(), b)

	b, err = parsePosition(xiangqi.InitialFingerprint())
	require.NoError(t, err)
	assert.Equal(t, xiangqi.Initial(), b)

	_, err = parsePosition("short")
	assert.Error(t, err)
}

func TestJoinIDs(t *testing.T) {
	assert.Equal(t, "#0 > #3 > #17", joinIDs([]int{0, 3, 17}))
	assert.Equal(t, "", joinIDs(nil))
}
