// Package session implements the initialize/checkpoint contract between the
// search engine and a durable store.
//
// A session owns the in-memory node store for one (side, root fingerprint)
// key. Initialize either restores the last checkpoint or seeds a fresh root;
// Checkpoint writes the complete node set, the consumed-work counter and the
// summary pointers in one atomic save.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/lookahead/internal/frontier"
	"github.com/roach88/lookahead/internal/ir"
	"github.com/roach88/lookahead/internal/store"
)

var (
	// ErrNotInitialized is returned by Checkpoint before Initialize.
	ErrNotInitialized = errors.New("session not initialized")

	// ErrRootMismatch is returned when a stored snapshot's root does not
	// match the session key it was loaded for.
	ErrRootMismatch = errors.New("stored root does not match session key")
)

// Durable is the persistence contract. Load returns an error wrapping
// store.ErrNotFound for unknown keys; Save must be atomic.
// Both *store.Store and *store.Memory implement it.
type Durable interface {
	Load(ctx context.Context, key ir.SessionKey) (*ir.Snapshot, error)
	Save(ctx context.Context, snap *ir.Snapshot) error
}

// Session binds a node store to a durable store.
type Session struct {
	durable     Durable
	nodes       *frontier.Store
	key         ir.SessionKey
	initialized bool
}

// New creates a session over durable.
func New(durable Durable) *Session {
	return &Session{
		durable: durable,
		nodes:   frontier.New(),
	}
}

// Nodes returns the session's node store.
func (s *Session) Nodes() *frontier.Store {
	return s.nodes
}

// Key returns the key passed to Initialize.
func (s *Session) Key() ir.SessionKey {
	return s.key
}

// Initialize loads the snapshot stored for key into the node store and
// returns its consumed-work counter. When nothing is stored, the node store
// is seeded with root and the counter is zero. Nothing is written.
func (s *Session) Initialize(ctx context.Context, key ir.SessionKey, root *ir.Node) (int, error) {
	logger := zerolog.Ctx(ctx)

	snap, err := s.durable.Load(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if root.ID != 0 || !root.IsRoot() || root.Fingerprint != key.Fingerprint {
			return 0, fmt.Errorf("initialize session: %w", ErrRootMismatch)
		}
		s.nodes.Reset()
		if err := s.nodes.Insert(root); err != nil {
			return 0, fmt.Errorf("initialize session: %w", err)
		}
		s.key = key
		s.initialized = true
		logger.Info().Str("side", key.Side.String()).Msg("session-seeded")
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("initialize session: %w", err)
	}

	if err := s.nodes.Load(snap.Nodes); err != nil {
		return 0, fmt.Errorf("initialize session: %w", err)
	}
	stored, err := s.nodes.Get(0)
	if err != nil || !stored.IsRoot() || stored.Fingerprint != key.Fingerprint || stored.Parity != 0 {
		s.nodes.Reset()
		return 0, fmt.Errorf("initialize session: %w", ErrRootMismatch)
	}
	s.key = key
	s.initialized = true
	logger.Info().
		Str("side", key.Side.String()).
		Int("nodes", s.nodes.Len()).
		Int("consumed", snap.Consumed).
		Msg("session-restored")
	return snap.Consumed, nil
}

// Checkpoint persists the current node set with consumed as the work
// counter. It is safe to call repeatedly, including mid-run.
func (s *Session) Checkpoint(ctx context.Context, consumed int) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	nodes := s.nodes.All()
	snap := &ir.Snapshot{
		Key:      s.key,
		Nodes:    nodes,
		Consumed: consumed,
		Summary:  ir.Summarize(nodes, consumed),
	}
	if err := s.durable.Save(ctx, snap); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
