package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/lookahead/internal/ir"
)

func TestTerminated(t *testing.T) {
	open := &ir.Node{ID: 1}
	done := &ir.Node{ID: 2, Terminated: true}

	tests := []struct {
		name     string
		node     *ir.Node
		children []*ir.Node
		settled  bool
		want     bool
	}{
		{"already terminated", &ir.Node{Terminated: true}, []*ir.Node{open}, false, true},
		{"winner", &ir.Node{Winner: ir.Bottom}, nil, false, true},
		{"no continuation", &ir.Node{}, nil, false, true},
		{"open children", &ir.Node{}, []*ir.Node{open, done}, true, false},
		{"settled children, rule off", &ir.Node{}, []*ir.Node{done}, false, false},
		{"settled children, rule on", &ir.Node{}, []*ir.Node{done, done}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terminated(tt.node, tt.children, tt.settled))
		})
	}
}
