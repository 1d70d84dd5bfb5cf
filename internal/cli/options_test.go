package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/config"
	"github.com/SmitUplenchwar2687/tsmr/internal/storage"
)

func TestNormalizeRedisHostPort(t *testing.T) {
	host, port, err := normalizeRedisHostPort("localhost:6380", 6379)
	if err != nil {
		t.Fatalf("normalizeRedisHostPort() error = %v", err)
	}
	if host != "localhost" || port != 6380 {
		t.Fatalf("normalizeRedisHostPort() = %s:%d, want localhost:6380", host, port)
	}

	host, port, err = normalizeRedisHostPort("redis.internal", 6379)
	if err != nil {
		t.Fatalf("normalizeRedisHostPort() error = %v", err)
	}
	if host != "redis.internal" || port != 6379 {
		t.Fatalf("normalizeRedisHostPort() = %s:%d, want redis.internal:6379", host, port)
	}
}

func TestNormalizeRedisHostPort_Invalid(t *testing.T) {
	if _, _, err := normalizeRedisHostPort("", 6379); err == nil {
		t.Fatal("expected error for empty host")
	}
	if _, _, err := normalizeRedisHostPort("localhost", 0); err == nil {
		t.Fatal("expected error for non-positive port")
	}
	if _, _, err := normalizeRedisHostPort("localhost:abc", 6379); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func newFlagCmd(withConsumer bool) (*cobra.Command, *sessionOptions) {
	var opts sessionOptions
	cmd := &cobra.Command{Use: "test"}
	opts.addFlags(cmd, withConsumer)
	return cmd, &opts
}

func TestSinkOptions_OnlyChangedFlagsOverride(t *testing.T) {
	cmd, opts := newFlagCmd(false)
	if err := cmd.ParseFlags([]string{"--sink", "redis", "--redis-host", "cache:6390", "--redis-stream", "cam:1"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg := config.Default().Sink
	cfg.Redis.Password = "from-file"
	if err := opts.sink.applyTo(cmd, &cfg); err != nil {
		t.Fatalf("applyTo() error = %v", err)
	}

	if cfg.Backend != storage.BackendRedis {
		t.Errorf("backend = %q, want redis", cfg.Backend)
	}
	if cfg.Redis.Host != "cache" || cfg.Redis.Port != 6390 {
		t.Errorf("redis addr = %s:%d, want cache:6390", cfg.Redis.Host, cfg.Redis.Port)
	}
	if cfg.Redis.Stream != "cam:1" {
		t.Errorf("stream = %q, want cam:1", cfg.Redis.Stream)
	}
	if cfg.Redis.Password != "from-file" {
		t.Errorf("password = %q, unset flag should keep the file value", cfg.Redis.Password)
	}
	if cfg.Redis.PoolSize != 20 {
		t.Errorf("pool size = %d, want default 20", cfg.Redis.PoolSize)
	}
}

func TestSessionOptions_FlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsmr.json")
	file := `{
  "ring": {"capacity": 64, "order_policy": "reject"},
  "consumer": {"lag_ms": 250, "batch_size": 8, "rate": 10, "window": "2s"}
}`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cmd, opts := newFlagCmd(true)
	if err := cmd.ParseFlags([]string{"--config", path, "--capacity", "16", "--lag-ms", "0"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	cfg, err := opts.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	if cfg.Ring.Capacity != 16 {
		t.Errorf("capacity = %d, want flag value 16", cfg.Ring.Capacity)
	}
	if cfg.Ring.OrderPolicy != "reject" {
		t.Errorf("order = %q, want file value reject", cfg.Ring.OrderPolicy)
	}
	if cfg.Consumer.LagMS != 0 {
		t.Errorf("lag = %d, want explicit flag value 0", cfg.Consumer.LagMS)
	}
	if cfg.Consumer.BatchSize != 8 || cfg.Consumer.Rate != 10 || cfg.Consumer.Window != 2*time.Second {
		t.Errorf("consumer = %+v, want file values", cfg.Consumer)
	}
}

func TestSessionOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero capacity", []string{"--capacity", "0"}},
		{"unknown order", []string{"--order", "sometimes"}},
		{"zero batch", []string{"--batch", "0"}},
		{"negative rate", []string{"--rate", "-1"}},
		{"unknown sink", []string{"--sink", "s3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, opts := newFlagCmd(true)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}
			if _, err := opts.resolve(cmd); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	cfg := config.Default()
	cfg.Ring.Capacity = 4
	cfg.Sink.Backend = storage.BackendNone

	g, pacer, sink, err := newSession(cfg, nil)
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}
	defer g.Close()
	defer sink.Close()

	if got := g.Stats().Cap; got != 4 {
		t.Errorf("cap = %d, want 4", got)
	}
	if got := pacer.Take(5); got != 5 {
		t.Errorf("unlimited pacer granted %d, want 5", got)
	}
}
