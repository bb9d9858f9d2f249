package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// RunIDGenerator names each Run call so its log lines can be grouped.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator issues time-ordered UUIDv7 run ids. The zero value is ready
// to use.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a scripted list of run ids, one per call.
type FixedGenerator struct {
	ids  []string
	next atomic.Int64
}

func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate panics once the list runs out: the caller started more runs
// than it scripted.
func (g *FixedGenerator) Generate() string {
	i := g.next.Add(1) - 1
	if i >= int64(len(g.ids)) {
		panic(fmt.Sprintf("run id %d requested, only %d scripted", i+1, len(g.ids)))
	}
	return g.ids[i]
}
