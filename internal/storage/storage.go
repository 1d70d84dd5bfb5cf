package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// ErrSinkClosed is returned when delivering to a closed sink.
var ErrSinkClosed = errors.New("storage: sink closed")

// Batch is one extraction handed to the downstream consumer.
type Batch struct {
	ID           string                    `json:"id"`
	ExtractedAt  time.Time                 `json:"extracted_at"`
	CutoffMS     uint64                    `json:"cutoff_ms"`
	Measurements []measurement.Measurement `json:"measurements"`
}

// NewBatch stamps an extraction with a fresh identifier.
func NewBatch(cutoff uint64, ms []measurement.Measurement, at time.Time) Batch {
	return Batch{
		ID:           uuid.NewString(),
		ExtractedAt:  at,
		CutoffMS:     cutoff,
		Measurements: ms,
	}
}

// Len returns the number of measurements in the batch.
func (b Batch) Len() int {
	return len(b.Measurements)
}

// Sink receives extracted batches.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Deliver hands a batch downstream. The sink must not retain b.Measurements
	// beyond the call unless it copies them.
	Deliver(ctx context.Context, b Batch) error

	// Close releases the sink's resources. It is idempotent.
	Close() error
}

// Config selects and configures a sink backend.
type Config struct {
	Backend string      `json:"backend"`
	Redis   RedisConfig `json:"redis"`
}

// Validate checks the backend name and its settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendNone:
		return nil
	case BackendRedis:
		_, err := normalizeRedisConfig(&c.Redis)
		return err
	default:
		return fmt.Errorf("unknown sink backend %q, must be one of: memory, redis, none", c.Backend)
	}
}

// New constructs the sink named by cfg.Backend.
func New(cfg Config) (Sink, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemorySink(), nil
	case BackendRedis:
		return NewRedisSink(&cfg.Redis)
	case BackendNone, "":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown sink backend %q", cfg.Backend)
	}
}

// Discard drops every batch.
type Discard struct{}

func (Discard) Deliver(ctx context.Context, _ Batch) error { return ctx.Err() }

func (Discard) Close() error { return nil }
