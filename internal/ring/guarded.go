package ring

import (
	"sync"

	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
)

// Stats is a point-in-time view of a ring's window.
type Stats struct {
	Len      int    `json:"len"`
	Cap      int    `json:"cap"`
	Cursor   int    `json:"cursor"`
	OldestMS uint64 `json:"oldest_ms,omitempty"`
	NewestMS uint64 `json:"newest_ms,omitempty"`
	Order    string `json:"order_policy"`
}

// Guarded serializes every operation on a Ring behind a mutex.
// Thread-safe for concurrent use.
type Guarded struct {
	mu sync.Mutex
	r  *Ring
}

// NewGuarded wraps r. The caller must not use r directly afterwards.
func NewGuarded(r *Ring) *Guarded {
	return &Guarded{r: r}
}

func (g *Guarded) Push(m measurement.Measurement) (measurement.Measurement, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Push(m)
}

func (g *Guarded) Find(ts uint64) (measurement.Measurement, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Find(ts)
}

func (g *Guarded) Correct(m measurement.Measurement) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Correct(m)
}

func (g *Guarded) ExtractOlderThan(cutoff uint64, max int) []measurement.Measurement {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.ExtractOlderThan(cutoff, max)
}

func (g *Guarded) Drain(max int) []measurement.Measurement {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Drain(max)
}

func (g *Guarded) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Len()
}

func (g *Guarded) Snapshot() []measurement.Measurement {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Snapshot()
}

// Stats reports the current window in one critical section.
func (g *Guarded) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Stats{
		Len:    g.r.Len(),
		Cap:    g.r.Cap(),
		Cursor: g.r.Cursor(),
	}
	if g.r != nil {
		s.Order = g.r.order.String()
	}
	if m, ok := g.r.Oldest(); ok {
		s.OldestMS = m.TimestampMS
	}
	if m, ok := g.r.Newest(); ok {
		s.NewestMS = m.TimestampMS
	}
	return s
}

// Close releases the wrapped ring. It is idempotent.
func (g *Guarded) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.r.Close()
}
