package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/limiter"
	"github.com/SmitUplenchwar2687/tsmr/internal/ring"
	"github.com/SmitUplenchwar2687/tsmr/internal/storage"
)

// Config is the top-level configuration for a tsmr session.
type Config struct {
	Ring     RingConfig     `json:"ring"`
	Consumer ConsumerConfig `json:"consumer"`
	Server   ServerConfig   `json:"server"`
	Sink     storage.Config `json:"sink"`
}

// RingConfig sizes the measurement ring.
type RingConfig struct {
	Capacity    int    `json:"capacity"`
	OrderPolicy string `json:"order_policy"` // accept | reject
}

// ConsumerConfig describes the downstream consumer draining the ring.
type ConsumerConfig struct {
	LagMS     uint64        `json:"lag_ms"`     // extract records older than now - lag
	BatchSize int           `json:"batch_size"` // max records per extraction
	Rate      int           `json:"rate"`       // records per window, 0 = unlimited
	Window    time.Duration `json:"window"`
	Burst     int           `json:"burst"`
}

// Pacing returns the consumer's token bucket parameters.
func (c ConsumerConfig) Pacing() limiter.Config {
	return limiter.Config{Rate: c.Rate, Window: c.Window, Burst: c.Burst}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Ring: RingConfig{
			Capacity:    256,
			OrderPolicy: ring.AcceptOutOfOrder.String(),
		},
		Consumer: ConsumerConfig{
			LagMS:     100,
			BatchSize: 32,
			Window:    time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Sink: storage.Config{
			Backend: storage.BackendMemory,
			Redis: storage.RedisConfig{
				Host:        "localhost",
				Port:        6379,
				PoolSize:    20,
				MaxRetries:  3,
				DialTimeout: 5 * time.Second,
				Stream:      "tsmr:extracted",
			},
		},
	}
}

// Validate checks that the config is valid.
func (c Config) Validate() error {
	if c.Ring.Capacity <= 0 {
		return fmt.Errorf("ring.capacity must be positive, got %d", c.Ring.Capacity)
	}
	if c.Ring.Capacity > ring.MaxCapacity {
		return fmt.Errorf("ring.capacity must be at most %d, got %d", ring.MaxCapacity, c.Ring.Capacity)
	}
	if _, err := ring.ParseOrderPolicy(c.Ring.OrderPolicy); err != nil {
		return fmt.Errorf("ring.order_policy: %w", err)
	}
	if c.Consumer.BatchSize <= 0 {
		return fmt.Errorf("consumer.batch_size must be positive, got %d", c.Consumer.BatchSize)
	}
	if err := c.Consumer.Pacing().Validate(); err != nil {
		return err
	}
	if err := c.Sink.Validate(); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return nil
}

// RingOptions translates the ring section into constructor options.
func (c Config) RingOptions() ([]ring.Option, error) {
	p, err := ring.ParseOrderPolicy(c.Ring.OrderPolicy)
	if err != nil {
		return nil, err
	}
	return []ring.Option{ring.WithOrderPolicy(p)}, nil
}

// LoadFile reads a JSON config file and merges it with defaults.
// Fields not specified in the file retain their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	// Use a raw intermediate struct to handle duration parsing.
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if raw.Ring.Capacity > 0 {
		cfg.Ring.Capacity = raw.Ring.Capacity
	}
	if raw.Ring.OrderPolicy != "" {
		cfg.Ring.OrderPolicy = raw.Ring.OrderPolicy
	}

	if raw.Consumer.LagMS != nil {
		cfg.Consumer.LagMS = *raw.Consumer.LagMS
	}
	if raw.Consumer.BatchSize > 0 {
		cfg.Consumer.BatchSize = raw.Consumer.BatchSize
	}
	if raw.Consumer.Rate > 0 {
		cfg.Consumer.Rate = raw.Consumer.Rate
	}
	if raw.Consumer.Window != "" {
		d, err := time.ParseDuration(raw.Consumer.Window)
		if err != nil {
			return cfg, fmt.Errorf("parsing consumer.window: %w", err)
		}
		cfg.Consumer.Window = d
	}
	if raw.Consumer.Burst > 0 {
		cfg.Consumer.Burst = raw.Consumer.Burst
	}

	if raw.Server.Addr != "" {
		cfg.Server.Addr = raw.Server.Addr
	}

	if raw.Sink.Backend != "" {
		cfg.Sink.Backend = raw.Sink.Backend
	}
	r := raw.Sink.Redis
	if r.Host != "" {
		cfg.Sink.Redis.Host = r.Host
	}
	if r.Port > 0 {
		cfg.Sink.Redis.Port = r.Port
	}
	if r.Password != "" {
		cfg.Sink.Redis.Password = r.Password
	}
	if r.DB > 0 {
		cfg.Sink.Redis.DB = r.DB
	}
	if r.Cluster {
		cfg.Sink.Redis.Cluster = true
		cfg.Sink.Redis.ClusterNodes = append([]string(nil), r.ClusterNodes...)
	}
	if r.PoolSize > 0 {
		cfg.Sink.Redis.PoolSize = r.PoolSize
	}
	if r.MaxRetries > 0 {
		cfg.Sink.Redis.MaxRetries = r.MaxRetries
	}
	if r.DialTimeout != "" {
		d, err := time.ParseDuration(r.DialTimeout)
		if err != nil {
			return cfg, fmt.Errorf("parsing sink.redis.dial_timeout: %w", err)
		}
		cfg.Sink.Redis.DialTimeout = d
	}
	if r.Stream != "" {
		cfg.Sink.Redis.Stream = r.Stream
	}
	if r.MaxLen > 0 {
		cfg.Sink.Redis.MaxLen = r.MaxLen
	}

	return cfg, nil
}

// rawConfig is the JSON-friendly representation with string durations.
type rawConfig struct {
	Ring struct {
		Capacity    int    `json:"capacity"`
		OrderPolicy string `json:"order_policy"`
	} `json:"ring"`
	Consumer struct {
		LagMS     *uint64 `json:"lag_ms"` // 0 is meaningful
		BatchSize int     `json:"batch_size"`
		Rate      int     `json:"rate"`
		Window    string  `json:"window"`
		Burst     int     `json:"burst"`
	} `json:"consumer"`
	Server struct {
		Addr string `json:"addr"`
	} `json:"server"`
	Sink struct {
		Backend string `json:"backend"`
		Redis   struct {
			Host         string   `json:"host"`
			Port         int      `json:"port"`
			Password     string   `json:"password"`
			DB           int      `json:"db"`
			Cluster      bool     `json:"cluster"`
			ClusterNodes []string `json:"cluster_nodes"`
			PoolSize     int      `json:"pool_size"`
			MaxRetries   int      `json:"max_retries"`
			DialTimeout  string   `json:"dial_timeout"`
			Stream       string   `json:"stream"`
			MaxLen       int64    `json:"max_len"`
		} `json:"redis"`
	} `json:"sink"`
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	example := `{
  "ring": {
    "capacity": 256,
    "order_policy": "accept"
  },
  "consumer": {
    "lag_ms": 100,
    "batch_size": 32,
    "rate": 0,
    "window": "1s",
    "burst": 0
  },
  "server": {
    "addr": ":8080"
  },
  "sink": {
    "backend": "memory",
    "redis": {
      "host": "localhost",
      "port": 6379,
      "db": 0,
      "pool_size": 20,
      "max_retries": 3,
      "dial_timeout": "5s",
      "stream": "tsmr:extracted",
      "max_len": 10000
    }
  }
}
`
	return os.WriteFile(path, []byte(example), 0o644)
}
