package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPoolSize    = 20
	defaultRedisMaxRetries  = 3
	defaultRedisDialTimeout = 5 * time.Second
	defaultRedisStream      = "tsmr:extracted"
	defaultRedisMaxLen      = 10000
)

// RedisConfig configures the Redis stream sink.
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password,omitempty"`
	DB           int           `json:"db"`
	Cluster      bool          `json:"cluster,omitempty"`
	ClusterNodes []string      `json:"cluster_nodes,omitempty"`
	PoolSize     int           `json:"pool_size"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	Stream       string        `json:"stream"`
	MaxLen       int64         `json:"max_len"` // approximate stream trim length
}

// RedisSink appends each batch to a Redis stream as one entry.
type RedisSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64

	closeOnce sync.Once
	closeErr  error
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(cfg *RedisConfig) (*RedisSink, error) {
	conf, err := normalizeRedisConfig(cfg)
	if err != nil {
		return nil, err
	}

	client := newRedisClient(conf)
	s := &RedisSink{
		client: client,
		stream: conf.Stream,
		maxLen: conf.MaxLen,
	}

	if err := s.pingWithRetry(context.Background(), conf.MaxRetries); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return s, nil
}

// Deliver XADDs the batch. The measurements travel as one JSON document.
func (s *RedisSink) Deliver(ctx context.Context, b Batch) error {
	payload, err := json.Marshal(b.Measurements)
	if err != nil {
		return fmt.Errorf("encoding batch %s: %w", b.ID, err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"batch_id":     b.ID,
			"extracted_at": b.ExtractedAt.UTC().Format(time.RFC3339Nano),
			"cutoff_ms":    b.CutoffMS,
			"count":        len(b.Measurements),
			"measurements": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("appending batch %s to %s: %w", b.ID, s.stream, err)
	}
	return nil
}

// Range reads up to count batches from the stream, oldest first.
func (s *RedisSink) Range(ctx context.Context, count int64) ([]Batch, error) {
	msgs, err := s.client.XRangeN(ctx, s.stream, "-", "+", count).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.stream, err)
	}

	out := make([]Batch, 0, len(msgs))
	for _, msg := range msgs {
		b, err := decodeBatch(msg.Values)
		if err != nil {
			return nil, fmt.Errorf("stream entry %s: %w", msg.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Close releases Redis resources. It is idempotent.
func (s *RedisSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

func decodeBatch(values map[string]interface{}) (Batch, error) {
	var b Batch

	id, _ := values["batch_id"].(string)
	b.ID = id

	if raw, ok := values["extracted_at"].(string); ok {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return b, fmt.Errorf("parsing extracted_at: %w", err)
		}
		b.ExtractedAt = at
	}

	cutoff, err := asUint64(values["cutoff_ms"])
	if err != nil {
		return b, fmt.Errorf("parsing cutoff_ms: %w", err)
	}
	b.CutoffMS = cutoff

	payload, _ := values["measurements"].(string)
	if err := json.Unmarshal([]byte(payload), &b.Measurements); err != nil {
		return b, fmt.Errorf("decoding measurements: %w", err)
	}
	return b, nil
}

func (s *RedisSink) pingWithRetry(ctx context.Context, maxRetries int) error {
	attempts := maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	backoff := 100 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := s.client.Ping(ctx).Err()
		if err == nil {
			return nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	if lastErr == nil {
		lastErr = errors.New("ping failed with unknown error")
	}
	return lastErr
}

func normalizeRedisConfig(cfg *RedisConfig) (*RedisConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	conf := *cfg
	if conf.PoolSize <= 0 {
		conf.PoolSize = defaultRedisPoolSize
	}
	if conf.MaxRetries <= 0 {
		conf.MaxRetries = defaultRedisMaxRetries
	}
	if conf.DialTimeout <= 0 {
		conf.DialTimeout = defaultRedisDialTimeout
	}
	if conf.Stream == "" {
		conf.Stream = defaultRedisStream
	}
	if conf.MaxLen < 0 {
		return nil, fmt.Errorf("max_len must not be negative, got %d", conf.MaxLen)
	}
	if conf.MaxLen == 0 {
		conf.MaxLen = defaultRedisMaxLen
	}

	if conf.Cluster {
		if len(conf.ClusterNodes) == 0 {
			return nil, fmt.Errorf("cluster_nodes is required when cluster=true")
		}
	} else {
		if conf.Host == "" {
			return nil, fmt.Errorf("host is required when cluster=false")
		}
		if conf.Port <= 0 {
			return nil, fmt.Errorf("port must be positive when cluster=false, got %d", conf.Port)
		}
	}

	return &conf, nil
}

func newRedisClient(cfg *RedisConfig) redis.UniversalClient {
	if cfg.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       cfg.ClusterNodes,
			Password:    cfg.Password,
			PoolSize:    cfg.PoolSize,
			MaxRetries:  cfg.MaxRetries,
			DialTimeout: cfg.DialTimeout,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})
}

func asUint64(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case int64:
		return uint64(x), nil
	case uint64:
		return x, nil
	case string:
		n, err := strconv.ParseUint(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse uint64 from %q: %w", x, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}
