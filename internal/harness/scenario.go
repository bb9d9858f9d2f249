package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lookahead/internal/ir"
)

// Scenario defines a search scenario: a game, a sequence of search calls
// against one session, and assertions on the final node set.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Side is the side to move at the root. Defaults to top.
	Side string `yaml:"side,omitempty"`

	// Game is a scripted position graph. Exactly one of Game and Xiangqi is set.
	Game *GameSpec `yaml:"game,omitempty"`

	// Xiangqi searches a real board.
	Xiangqi *XiangqiSpec `yaml:"xiangqi,omitempty"`

	// Options tune the engine.
	Options Options `yaml:"options,omitempty"`

	// Steps are successive search calls; each reopens the session from its
	// last checkpoint.
	Steps []Step `yaml:"steps"`

	// Assertions validate the state after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// GameSpec is a scripted graph of positions named by their fingerprints.
type GameSpec struct {
	Start     string         `yaml:"start"`
	Positions []PositionSpec `yaml:"positions"`
}

// PositionSpec defines one scripted position.
type PositionSpec struct {
	ID      string   `yaml:"id"`
	Eval    float64  `yaml:"eval,omitempty"`
	Moves   []string `yaml:"moves,omitempty"`
	Winner  string   `yaml:"winner,omitempty"`
	Capture bool     `yaml:"capture,omitempty"`
	Exposed bool     `yaml:"exposed,omitempty"`
}

// XiangqiSpec starts a board search. Start is "initial" or a fingerprint.
type XiangqiSpec struct {
	Start string `yaml:"start"`
}

// Options mirror the engine and early-stop settings.
type Options struct {
	CheckpointInterval         int  `yaml:"checkpoint_interval,omitempty"`
	TerminateOnSettledChildren bool `yaml:"terminate_on_settled_children,omitempty"`
	StableCheckpoints          int  `yaml:"stable_checkpoints,omitempty"`
	PVDepth                    int  `yaml:"pv_depth,omitempty"`
}

// Step is one search call. Until, when set, is an absolute consumed target.
type Step struct {
	Budget int `yaml:"budget,omitempty"`
	Until  int `yaml:"until,omitempty"`
}

// Assertion validates the final search state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is used by node_count, consumed and saves.
	Count int `yaml:"count,omitempty"`

	// Reason is used by stopped.
	Reason string `yaml:"reason,omitempty"`

	// Fingerprint selects a node (node, best).
	Fingerprint string `yaml:"fingerprint,omitempty"`

	// Parity narrows node lookups when a fingerprint occurs at both parities.
	Parity *int `yaml:"parity,omitempty"`

	// Expect holds node field expectations (node). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Line is the expected principal line as fingerprints (principal_line).
	Line []string `yaml:"line,omitempty"`
}

// Assertion type constants.
const (
	AssertNodeCount     = "node_count"
	AssertConsumed      = "consumed"
	AssertStopped       = "stopped"
	AssertBest          = "best"
	AssertNode          = "node"
	AssertSaves         = "saves"
	AssertPrincipalLine = "principal_line"
)

// LoadScenario reads, schema-checks and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario schema-checks and parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario covers the cross-field rules the schema cannot express.
func validateScenario(s *Scenario) error {
	if (s.Game == nil) == (s.Xiangqi == nil) {
		return fmt.Errorf("exactly one of game and xiangqi is required")
	}
	if _, err := s.side(); err != nil {
		return err
	}

	if s.Game != nil {
		ids := make(map[string]bool, len(s.Game.Positions))
		for i, p := range s.Game.Positions {
			if ids[p.ID] {
				return fmt.Errorf("game.positions[%d]: duplicate id %q", i, p.ID)
			}
			ids[p.ID] = true
			if _, err := ir.ParseSide(p.Winner); err != nil {
				return fmt.Errorf("game.positions[%d]: %w", i, err)
			}
		}
		if !ids[s.Game.Start] {
			return fmt.Errorf("game.start %q is not a defined position", s.Game.Start)
		}
	}

	for i, step := range s.Steps {
		if step.Budget > 0 && step.Until > 0 {
			return fmt.Errorf("steps[%d]: budget and until are exclusive", i)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertNode, AssertBest:
			if a.Fingerprint == "" && a.Type == AssertNode {
				return fmt.Errorf("assertions[%d]: fingerprint is required for node", i)
			}
		case AssertStopped:
			if a.Reason == "" {
				return fmt.Errorf("assertions[%d]: reason is required for stopped", i)
			}
		}
	}
	return nil
}

func (s *Scenario) side() (ir.Side, error) {
	if s.Side == "" {
		return ir.Top, nil
	}
	side, err := ir.ParseSide(s.Side)
	if err != nil {
		return ir.NoSide, err
	}
	if !side.Valid() {
		return ir.NoSide, fmt.Errorf("side must be top or bottom, got %q", s.Side)
	}
	return side, nil
}
