package storage

import (
	"context"
	"sync"

	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
)

// MemorySink keeps every delivered batch in memory.
// Thread-safe for concurrent use.
type MemorySink struct {
	mu      sync.RWMutex
	batches []Batch
	closed  bool
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Deliver(ctx context.Context, b Batch) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	b.Measurements = append([]measurement.Measurement(nil), b.Measurements...)
	s.batches = append(s.batches, b)
	return nil
}

// Batches returns a copy of the delivered batches in delivery order.
func (s *MemorySink) Batches() []Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Batch, len(s.batches))
	for i, b := range s.batches {
		b.Measurements = append([]measurement.Measurement(nil), b.Measurements...)
		out[i] = b
	}
	return out
}

// Measurements flattens every delivered batch, oldest delivery first.
func (s *MemorySink) Measurements() []measurement.Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []measurement.Measurement
	for _, b := range s.batches {
		out = append(out, b.Measurements...)
	}
	return out
}

// Len returns the number of delivered batches.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}

// Close stops accepting batches. Delivered batches stay readable.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
