// Package testutil provides deterministic collaborators for search tests.
package testutil

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
)

// ErrUnknownPosition is returned for fingerprints the graph does not define.
var ErrUnknownPosition = errors.New("unknown position")

// Vertex is one scripted position.
type Vertex struct {
	Evaluation float64
	Winner     ir.Side
	Moves      []string // fingerprints reached by each move, in order
	CanCapture bool
	Exposed    bool
}

// Graph is a scripted game: positions are their own fingerprints and a move
// is the fingerprint it leads to. Moves do not depend on the side to move.
//
// Thread-safety: Graph is safe for concurrent use.
type Graph struct {
	mu       sync.Mutex
	vertices map[string]*Vertex
	fail     map[string]error
	evals    map[string]int
	expands  map[string]int
}

var _ engine.Rules = (*Graph)(nil)

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[string]*Vertex),
		fail:     make(map[string]error),
		evals:    make(map[string]int),
		expands:  make(map[string]int),
	}
}

// Add defines a position with an evaluation and its moves. Targets that are
// not defined yet are created with evaluation zero and no moves.
func (g *Graph) Add(fp string, eval float64, moves ...string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.vertex(fp)
	v.Evaluation = eval
	v.Moves = append([]string(nil), moves...)
	for _, m := range moves {
		g.vertex(m)
	}
	return g
}

// Win marks a position as decided for side.
func (g *Graph) Win(fp string, side ir.Side) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertex(fp).Winner = side
	return g
}

// Capture marks a position where the side to move can take the opposing general.
func (g *Graph) Capture(fp string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertex(fp).CanCapture = true
	return g
}

// Expose marks a position where the side to move's general can be taken.
func (g *Graph) Expose(fp string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertex(fp).Exposed = true
	return g
}

// Eval sets the evaluation of an existing or new position.
func (g *Graph) Eval(fp string, eval float64) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertex(fp).Evaluation = eval
	return g
}

// FailOn makes every collaborator call on fp return err.
func (g *Graph) FailOn(fp string, err error) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[fp] = err
	return g
}

// Evaluations returns how often fp was evaluated.
func (g *Graph) Evaluations(fp string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.evals[fp]
}

// Expansions returns how often moves were generated for fp.
func (g *Graph) Expansions(fp string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expands[fp]
}

// Fingerprints returns all defined fingerprints, sorted.
func (g *Graph) Fingerprints() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.vertices))
	for fp := range g.vertices {
		out = append(out, fp)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) vertex(fp string) *Vertex {
	v, ok := g.vertices[fp]
	if !ok {
		v = &Vertex{}
		g.vertices[fp] = v
	}
	return v
}

func (g *Graph) lookup(pos engine.Position) (string, *Vertex, error) {
	fp, ok := pos.(string)
	if !ok {
		return "", nil, fmt.Errorf("position %v: not a graph position", pos)
	}
	if err := g.fail[fp]; err != nil {
		return fp, nil, err
	}
	v, ok := g.vertices[fp]
	if !ok {
		return fp, nil, fmt.Errorf("%w: %q", ErrUnknownPosition, fp)
	}
	return fp, v, nil
}

// LegalMoves implements engine.Rules.
func (g *Graph) LegalMoves(pos engine.Position, _ ir.Side) ([]engine.Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fp, v, err := g.lookup(pos)
	if err != nil {
		return nil, err
	}
	g.expands[fp]++
	moves := make([]engine.Move, len(v.Moves))
	for i, m := range v.Moves {
		moves[i] = m
	}
	return moves, nil
}

// Apply implements engine.Rules.
func (g *Graph) Apply(_ engine.Position, m engine.Move) (engine.Position, error) {
	target, ok := m.(string)
	if !ok {
		return nil, fmt.Errorf("move %v: not a graph move", m)
	}
	return target, nil
}

// Evaluate implements engine.Rules.
func (g *Graph) Evaluate(pos engine.Position) (ir.Side, float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fp, v, err := g.lookup(pos)
	if err != nil {
		return ir.NoSide, 0, err
	}
	g.evals[fp]++
	return v.Winner, v.Evaluation, nil
}

// Fingerprint implements engine.Rules.
func (g *Graph) Fingerprint(pos engine.Position) string {
	fp, _ := pos.(string)
	return fp
}

// Position implements engine.Rules.
func (g *Graph) Position(fingerprint string) (engine.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.vertices[fingerprint]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPosition, fingerprint)
	}
	return fingerprint, nil
}

// Threats implements engine.Rules.
func (g *Graph) Threats(pos engine.Position, _ ir.Side) (engine.Threat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, v, err := g.lookup(pos)
	if err != nil {
		return engine.Threat{}, err
	}
	return engine.Threat{CanCapture: v.CanCapture, Exposed: v.Exposed}, nil
}

// RandomGraph builds a reproducible graph with size positions named p0..pN.
// Every position gets between one and branching moves to random positions,
// so the graph contains transpositions and cycles. p0 is the start.
func RandomGraph(seed uint64, size, branching int) *Graph {
	return randomGraph(seed, size, branching, false)
}

// RandomDAG is RandomGraph restricted to moves towards higher-numbered
// positions, so every search over it runs out of open nodes. Each position
// moves to its successor, so all of them are reachable from p0.
func RandomDAG(seed uint64, size, branching int) *Graph {
	return randomGraph(seed, size, branching, true)
}

func randomGraph(seed uint64, size, branching int, acyclic bool) *Graph {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g := NewGraph()
	name := func(i int) string { return fmt.Sprintf("p%d", i) }
	for i := 0; i < size; i++ {
		var moves []string
		switch {
		case !acyclic:
			n := 1 + r.IntN(branching)
			for j := 0; j < n; j++ {
				moves = append(moves, name(r.IntN(size)))
			}
		case i+1 < size:
			// Chain to the next position so every position is reachable.
			moves = append(moves, name(i+1))
			for j := r.IntN(branching); j > 0; j-- {
				moves = append(moves, name(i+1+r.IntN(size-i-1)))
			}
		}
		g.Add(name(i), float64(r.IntN(41)-20), moves...)
	}
	return g
}
