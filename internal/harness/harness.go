package harness

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/lookahead/internal/engine"
	"github.com/roach88/lookahead/internal/ir"
	"github.com/roach88/lookahead/internal/session"
	"github.com/roach88/lookahead/internal/store"
	"github.com/roach88/lookahead/internal/testutil"
	"github.com/roach88/lookahead/internal/xiangqi"
)

// countingStore counts checkpoint writes on the way to the SQLite store.
type countingStore struct {
	*store.Store
	saves atomic.Int64
}

func (c *countingStore) Save(ctx context.Context, snap *ir.Snapshot) error {
	if err := c.Store.Save(ctx, snap); err != nil {
		return err
	}
	c.saves.Add(1)
	return nil
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory SQLite database. Every step opens
// a new session over it, so later steps resume from the stored checkpoint
// exactly as a restarted process would.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	rules, start, err := scenario.collaborator()
	if err != nil {
		return nil, err
	}
	side, err := scenario.side()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	durable := &countingStore{Store: st}

	logger := zerolog.Ctx(ctx).With().Str("scenario", scenario.Name).Logger()
	ctx = logger.WithContext(ctx)

	result := NewResult(scenario.Name)
	var last *engine.Result
	for i, step := range scenario.Steps {
		opts := []engine.Option{
			engine.WithTerminateOnSettledChildren(scenario.Options.TerminateOnSettledChildren),
			engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(fmt.Sprintf("%s-%d", scenario.Name, i))),
		}
		if scenario.Options.StableCheckpoints > 0 {
			opts = append(opts, engine.WithStopper(
				engine.NewStableLeader(scenario.Options.StableCheckpoints, scenario.Options.PVDepth)))
		}

		req := engine.Request{
			Start:              start,
			Side:               side,
			Budget:             step.Budget,
			UntilTotal:         step.Until,
			CheckpointInterval: scenario.Options.CheckpointInterval,
		}
		res, err := engine.RunSearch(ctx, rules, session.New(durable), req, opts...)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.AddStep(res)
		logger.Debug().Int("step", i).Int("consumed", res.Consumed).Str("stopped", string(res.Stopped)).Msg("scenario-step")
		last = res
	}

	result.Saves = int(durable.saves.Load())
	result.setFinal(last)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// RunAll runs scenarios concurrently, at most limit at a time (zero means no
// limit). Results keep the input order. The first execution error cancels the
// remaining scenarios.
func RunAll(ctx context.Context, scenarios []*Scenario, limit int) ([]*Result, error) {
	results := make([]*Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			res, err := Run(ctx, s)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// collaborator builds the rules engine and start position for s.
func (s *Scenario) collaborator() (engine.Rules, engine.Position, error) {
	if s.Game != nil {
		g := testutil.NewGraph()
		for _, p := range s.Game.Positions {
			g.Add(p.ID, p.Eval, p.Moves...)
			winner, err := ir.ParseSide(p.Winner)
			if err != nil {
				return nil, nil, err
			}
			if winner != ir.NoSide {
				g.Win(p.ID, winner)
			}
			if p.Capture {
				g.Capture(p.ID)
			}
			if p.Exposed {
				g.Expose(p.ID)
			}
		}
		return g, s.Game.Start, nil
	}
	if s.Xiangqi == nil {
		return nil, nil, fmt.Errorf("scenario %s: no game", s.Name)
	}
	fp := s.Xiangqi.Start
	if fp == "initial" {
		fp = xiangqi.InitialFingerprint()
	}
	b, err := xiangqi.Parse(fp)
	if err != nil {
		return nil, nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return xiangqi.Rules{}, b, nil
}
