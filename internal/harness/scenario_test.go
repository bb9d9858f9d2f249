package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "smallest valid scenario"
game:
  start: root
  positions:
    - id: root
      moves: [a]
steps:
  - budget: 1
assertions:
  - type: consumed
    count: 1
`

func TestParseScenarioMinimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.NotNil(t, s.Game)
	assert.Equal(t, "root", s.Game.Start)
	assert.Equal(t, []string{"a"}, s.Game.Positions[0].Moves)
	assert.Equal(t, []Step{{Budget: 1}}, s.Steps)
}

func TestParseScenarioRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    minimalScenario + "flow: []\n",
			wantErr: "schema",
		},
		{
			name: "missing description",
			yaml: `
name: x
game: {start: r, positions: [{id: r}]}
steps: [{budget: 1}]
assertions: [{type: consumed, count: 1}]
`,
			wantErr: "schema",
		},
		{
			name: "negative budget",
			yaml: `
name: x
description: d
game: {start: r, positions: [{id: r}]}
steps: [{budget: -1}]
assertions: [{type: consumed, count: 1}]
`,
			wantErr: "schema",
		},
		{
			name: "unknown assertion",
			yaml: `
name: x
description: d
game: {start: r, positions: [{id: r}]}
steps: [{budget: 1}]
assertions: [{type: trace_contains}]
`,
			wantErr: "schema",
		},
		{
			name: "no steps",
			yaml: `
name: x
description: d
game: {start: r, positions: [{id: r}]}
steps: []
assertions: [{type: consumed, count: 1}]
`,
			wantErr: "schema",
		},
		{
			name: "both games",
			yaml: `
name: x
description: d
game: {start: r, positions: [{id: r}]}
xiangqi: {start: initial}
steps: [{budget: 1}]
assertions: [{type: consumed, count: 1}]
`,
			wantErr: "exactly one of game and xiangqi",
		},
		{
			name: "undefined start",
			yaml: `
name: x
description: d
game: {start: nowhere, positions: [{id: r}]}
steps: [{budget: 1}]
assertions: [{type: consumed, count: 1}]
`,
			wantErr: "not a defined position",
		},
		{
			name: "duplicate position",
			yaml: `
name: x
description: d
game: {start: r, positions: [{id: r}, {id: r}]}
steps: [{budget: 1}]
assertions: [{type: consumed, count: 1}]
`,
			wantErr: "duplicate id",
		},
		{
			name: "budget and until",
			yaml: `
name: x
description: d
game: {start: r, positions: [{id: r}]}
steps: [{budget: 1, until: 4}]
assertions: [{type: consumed, count: 1}]
`,
			wantErr: "exclusive",
		},
		{
			name: "node without fingerprint",
			yaml: `
name: x
description: d
game: {start: r, positions: [{id: r}]}
steps: [{budget: 1}]
assertions: [{type: node}]
`,
			wantErr: "fingerprint is required",
		},
		{
			name:    "malformed yaml",
			yaml:    "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadDirReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(minimalScenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("name: b\n"), 0o644))

	_, err := LoadDir(dir)
	assert.ErrorContains(t, err, "b.yaml")
}

func TestScenarioSide(t *testing.T) {
	s := &Scenario{}
	side, err := s.side()
	require.NoError(t, err)
	assert.Equal(t, "top", side.String())

	s.Side = "b"
	side, err = s.side()
	require.NoError(t, err)
	assert.Equal(t, "bottom", side.String())

	s.Side = "none"
	_, err = s.side()
	assert.Error(t, err)
}
