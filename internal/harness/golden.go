package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the golden-file form of a scenario result.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Steps        []StepResult `json:"steps"`
	Consumed     int          `json:"consumed"`
	Stopped      string       `json:"stopped"`
	Saves        int          `json:"saves"`
	Best         string       `json:"best,omitempty"`
	Nodes        []NodeView   `json:"nodes"`
}

// SnapshotOf extracts the golden snapshot of a result.
func SnapshotOf(result *Result) Snapshot {
	return Snapshot{
		ScenarioName: result.Name,
		Steps:        result.Steps,
		Consumed:     result.Consumed,
		Stopped:      result.Stopped,
		Saves:        result.Saves,
		Best:         result.Best,
		Nodes:        result.Nodes,
	}
}

// RunWithGolden executes a scenario and compares its node set against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := json.MarshalIndent(SnapshotOf(result), "", "  ")
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
