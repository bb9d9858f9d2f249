package harness

import (
	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
)

// StepResult records one search call of a scenario.
type StepResult struct {
	RunID    string `json:"run_id"`
	Steps    int    `json:"steps"`
	Consumed int    `json:"consumed"`
	Nodes    int    `json:"nodes"`
	Stopped  string `json:"stopped"`
}

// NodeView is a node with its links resolved to fingerprints, so snapshots
// stay readable and independent of id assignment details.
type NodeView struct {
	ID          int      `json:"id"`
	Fingerprint string   `json:"fingerprint"`
	Parity      uint8    `json:"parity"`
	Depth       int      `json:"depth"`
	Evaluation  float64  `json:"evaluation"`
	Winner      ir.Side  `json:"winner"`
	Urgency     float64  `json:"urgency"`
	Open        bool     `json:"open"`
	Terminated  bool     `json:"terminated"`
	Parent      string   `json:"parent,omitempty"`
	Relatives   []string `json:"relatives,omitempty"`
	Children    []string `json:"children,omitempty"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Steps lists the search calls in order.
	Steps []StepResult `json:"steps"`

	// Consumed is the session's final consumed-work counter.
	Consumed int `json:"consumed"`

	// Stopped is the last call's stop reason.
	Stopped string `json:"stopped"`

	// Saves counts checkpoint writes across all steps.
	Saves int `json:"saves"`

	// Best is the fingerprint of the best eligible node, if any.
	Best string `json:"best,omitempty"`

	// Summary holds the persisted summary pointers.
	Summary ir.Summary `json:"summary"`

	// Nodes is the final node set.
	Nodes []NodeView `json:"nodes"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	raw []*ir.Node
}

// NewResult creates a passing result for the named scenario.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep records one search call.
func (r *Result) AddStep(res *engine.Result) {
	r.Steps = append(r.Steps, StepResult{
		RunID:    res.RunID,
		Steps:    res.Steps,
		Consumed: res.Consumed,
		Nodes:    len(res.Nodes),
		Stopped:  string(res.Stopped),
	})
}

func (r *Result) setFinal(res *engine.Result) {
	if res == nil {
		return
	}
	r.raw = res.Nodes
	r.Consumed = res.Consumed
	r.Stopped = string(res.Stopped)
	r.Summary = res.Summary
	if res.Best != nil {
		r.Best = res.Best.Fingerprint
	}
	r.Nodes = Views(res.Nodes)
}

// Views resolves node links to fingerprints.
func Views(nodes []*ir.Node) []NodeView {
	fp := func(id int) string {
		if id < 0 || id >= len(nodes) {
			return ""
		}
		return nodes[id].Fingerprint
	}
	fps := func(ids []int) []string {
		if len(ids) == 0 {
			return nil
		}
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = fp(id)
		}
		return out
	}

	views := make([]NodeView, len(nodes))
	for i, n := range nodes {
		views[i] = NodeView{
			ID:          n.ID,
			Fingerprint: n.Fingerprint,
			Parity:      n.Parity,
			Depth:       n.Depth,
			Evaluation:  n.Evaluation,
			Winner:      n.Winner,
			Urgency:     n.Urgency,
			Open:        n.Open,
			Terminated:  n.Terminated,
			Parent:      fp(n.Parent),
			Relatives:   fps(n.Relatives),
			Children:    fps(n.Children),
		}
	}
	return views
}
