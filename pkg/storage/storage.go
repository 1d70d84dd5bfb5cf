package storage

import (
	"time"

	internalstorage "github.com/SmitUplenchwar2687/tsmr/internal/storage"
	"github.com/SmitUplenchwar2687/tsmr/pkg/ring"
)

// Batch is one extraction handed to a sink.
type Batch = internalstorage.Batch

// Sink receives extracted batches.
type Sink = internalstorage.Sink

// Config selects and configures a sink backend.
type Config = internalstorage.Config

// RedisConfig configures the Redis stream sink.
type RedisConfig = internalstorage.RedisConfig

// MemorySink keeps delivered batches in memory.
type MemorySink = internalstorage.MemorySink

// RedisSink appends delivered batches to a Redis stream.
type RedisSink = internalstorage.RedisSink

// Discard drops every batch.
type Discard = internalstorage.Discard

const (
	BackendMemory = internalstorage.BackendMemory
	BackendRedis  = internalstorage.BackendRedis
	BackendNone   = internalstorage.BackendNone
)

// NewBatch stamps an extraction with a fresh identifier.
func NewBatch(cutoff uint64, ms []ring.Measurement, at time.Time) Batch {
	return internalstorage.NewBatch(cutoff, ms, at)
}

// New constructs the sink named by cfg.Backend.
func New(cfg Config) (Sink, error) {
	return internalstorage.New(cfg)
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return internalstorage.NewMemorySink()
}

// NewRedisSink connects to Redis and returns a stream sink.
func NewRedisSink(cfg *RedisConfig) (*RedisSink, error) {
	return internalstorage.NewRedisSink(cfg)
}
