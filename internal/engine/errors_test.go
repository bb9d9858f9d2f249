package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/lookahead/internal/frontier"
)

func TestRuntimeErrorClassification(t *testing.T) {
	boom := errors.New("boom")

	collab := NewCollaboratorError(4, "evaluate", boom)
	wrapped := fmt.Errorf("outer: %w", collab)
	assert.True(t, IsCollaboratorError(wrapped))
	assert.ErrorIs(t, wrapped, boom, "collaborator errors keep their identity")
	assert.Contains(t, collab.Error(), "node=4")

	consistency := NewConsistencyError(2, "parent", frontier.ErrUnknownNode)
	assert.True(t, IsConsistencyError(consistency))
	assert.False(t, IsCollaboratorError(consistency))

	dup := storeError(1, "child", fmt.Errorf("insert: %w", frontier.ErrDuplicateKey))
	assert.True(t, IsDuplicateKeyError(dup))
	assert.True(t, IsDuplicateKeyError(frontier.ErrDuplicateKey))
	assert.True(t, IsConsistencyError(storeError(1, "child", frontier.ErrUnknownNode)))
}

func TestRunIDGenerators(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)

	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
