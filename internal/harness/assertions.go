package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertNodeCount:
		return expectInt(a.Type, a.Count, len(r.Nodes))
	case AssertConsumed:
		return expectInt(a.Type, a.Count, r.Consumed)
	case AssertSaves:
		return expectInt(a.Type, a.Count, r.Saves)
	case AssertStopped:
		if r.Stopped != a.Reason {
			return &AssertionError{Type: a.Type, Expected: a.Reason, Actual: r.Stopped}
		}
		return nil
	case AssertBest:
		if r.Best != a.Fingerprint {
			return &AssertionError{Type: a.Type, Expected: quoteOrNone(a.Fingerprint), Actual: quoteOrNone(r.Best)}
		}
		return nil
	case AssertNode:
		return assertNode(r, a)
	case AssertPrincipalLine:
		return assertPrincipalLine(r, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func expectInt(kind string, want, got int) error {
	if want != got {
		return &AssertionError{Type: kind, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
	}
	return nil
}

func quoteOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return fmt.Sprintf("%q", s)
}

// findNode returns the node view for a fingerprint, preferring the lowest id
// when the parity is left open.
func findNode(r *Result, fingerprint string, parity *int) (NodeView, bool) {
	return lo.Find(r.Nodes, func(n NodeView) bool {
		return n.Fingerprint == fingerprint && (parity == nil || int(n.Parity) == *parity)
	})
}

func assertNode(r *Result, a Assertion) error {
	n, ok := findNode(r, a.Fingerprint, a.Parity)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("node %q", a.Fingerprint), Actual: "not found"}
	}

	for _, key := range sortedKeys(a.Expect) {
		want := a.Expect[key]
		var got any
		switch key {
		case "urgency":
			got = n.Urgency
		case "evaluation":
			got = n.Evaluation
		case "depth":
			got = n.Depth
		case "parity":
			got = int(n.Parity)
		case "open":
			got = n.Open
		case "terminated":
			got = n.Terminated
		case "winner":
			got = n.Winner.String()
		case "parent":
			got = n.Parent
		case "children":
			got = n.Children
		case "relatives":
			got = n.Relatives
		default:
			return fmt.Errorf("node %q: unknown field %q", a.Fingerprint, key)
		}
		if !matchValue(want, got) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s.%s = %v", a.Fingerprint, key, want),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

func assertPrincipalLine(r *Result, a Assertion) error {
	ids, err := engine.PrincipalLine(nodeList(r.raw), len(a.Line))
	if err != nil {
		return err
	}
	got := lo.Map(ids, func(id int, _ int) string { return r.raw[id].Fingerprint })
	if !slices.Equal(got, a.Line) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Line), Actual: fmt.Sprint(got)}
	}
	return nil
}

// matchValue compares a YAML value against a node field. Numbers compare by
// value; "sentinel" and "-sentinel" name the forced urgencies.
func matchValue(want, got any) bool {
	switch g := got.(type) {
	case float64:
		w, ok := toFloat(want)
		return ok && (w == g || (math.IsNaN(w) && math.IsNaN(g)))
	case int:
		w, ok := toFloat(want)
		return ok && w == float64(g)
	case bool:
		w, ok := want.(bool)
		return ok && w == g
	case string:
		w, ok := want.(string)
		return ok && w == g
	case []string:
		list, ok := want.([]any)
		if !ok {
			return false
		}
		if len(list) != len(g) {
			return false
		}
		for i, item := range list {
			if s, ok := item.(string); !ok || s != g[i] {
				return false
			}
		}
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		switch n {
		case "sentinel":
			return ir.Sentinel, true
		case "-sentinel":
			return -ir.Sentinel, true
		}
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// nodeList adapts a node slice indexed by id to engine.NodeReader.
type nodeList []*ir.Node

func (l nodeList) Get(id int) (*ir.Node, error) {
	if id < 0 || id >= len(l) {
		return nil, fmt.Errorf("node %d out of range", id)
	}
	return l[id], nil
}

func (l nodeList) Len() int { return len(l) }
