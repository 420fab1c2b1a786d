// Package tid generates transaction ids for collector side deduplication.
// Not cryptographically strong.
package tid

import (
	"math/rand"
	"sync"

	"github.com/temoto/iotrack/helpers"
)

type Generator struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New uses r as randomness source, nil means seeded from current time.
func New(r *rand.Rand) *Generator {
	if r == nil {
		r = helpers.RandUnix()
	}
	return &Generator{r: r}
}

// Next returns random id from full 32 bit space.
// *rand.Rand is not safe for concurrent use, hence the lock.
func (g *Generator) Next() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Uint32()
}
