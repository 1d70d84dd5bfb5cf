package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/storage"
)

// sinkOptions holds the flags that select where extracted batches go.
type sinkOptions struct {
	backend           string
	redisHost         string
	redisPort         int
	redisPassword     string
	redisDB           int
	redisCluster      bool
	redisClusterNodes []string
	redisPoolSize     int
	redisMaxRetries   int
	redisDialTimeout  time.Duration
	redisStream       string
	redisMaxLen       int64
}

func (o *sinkOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.backend, "sink", storage.BackendMemory, "sink for extracted batches (memory, redis, none)")
	cmd.Flags().StringVar(&o.redisHost, "redis-host", "localhost", "redis host (or host:port)")
	cmd.Flags().IntVar(&o.redisPort, "redis-port", 6379, "redis port")
	cmd.Flags().StringVar(&o.redisPassword, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&o.redisDB, "redis-db", 0, "redis database index")
	cmd.Flags().BoolVar(&o.redisCluster, "redis-cluster", false, "enable redis cluster mode")
	cmd.Flags().StringSliceVar(&o.redisClusterNodes, "redis-cluster-nodes", nil, "redis cluster nodes host:port list")
	cmd.Flags().IntVar(&o.redisPoolSize, "redis-pool-size", 20, "redis connection pool size")
	cmd.Flags().IntVar(&o.redisMaxRetries, "redis-max-retries", 3, "redis max retries")
	cmd.Flags().DurationVar(&o.redisDialTimeout, "redis-dial-timeout", 5*time.Second, "redis dial timeout")
	cmd.Flags().StringVar(&o.redisStream, "redis-stream", "tsmr:extracted", "redis stream receiving extracted batches")
	cmd.Flags().Int64Var(&o.redisMaxLen, "redis-max-len", 10000, "approximate cap on redis stream length")
}

// applyTo overrides cfg with every sink flag set on the command line.
func (o *sinkOptions) applyTo(cmd *cobra.Command, cfg *storage.Config) error {
	changed := cmd.Flags().Changed

	if changed("sink") {
		cfg.Backend = o.backend
	}
	if changed("redis-host") || changed("redis-port") {
		host, port := cfg.Redis.Host, cfg.Redis.Port
		if changed("redis-host") {
			host = o.redisHost
		}
		if changed("redis-port") {
			port = o.redisPort
		}
		if !cfg.Redis.Cluster && !o.redisCluster {
			h, p, err := normalizeRedisHostPort(host, port)
			if err != nil {
				return err
			}
			host, port = h, p
		}
		cfg.Redis.Host, cfg.Redis.Port = host, port
	}
	if changed("redis-password") {
		cfg.Redis.Password = o.redisPassword
	}
	if changed("redis-db") {
		cfg.Redis.DB = o.redisDB
	}
	if changed("redis-cluster") {
		cfg.Redis.Cluster = o.redisCluster
	}
	if changed("redis-cluster-nodes") {
		cfg.Redis.ClusterNodes = append([]string(nil), o.redisClusterNodes...)
	}
	if changed("redis-pool-size") {
		cfg.Redis.PoolSize = o.redisPoolSize
	}
	if changed("redis-max-retries") {
		cfg.Redis.MaxRetries = o.redisMaxRetries
	}
	if changed("redis-dial-timeout") {
		cfg.Redis.DialTimeout = o.redisDialTimeout
	}
	if changed("redis-stream") {
		cfg.Redis.Stream = o.redisStream
	}
	if changed("redis-max-len") {
		cfg.Redis.MaxLen = o.redisMaxLen
	}
	return nil
}

func normalizeRedisHostPort(host string, port int) (string, int, error) {
	if strings.Contains(host, ":") {
		h, p, err := net.SplitHostPort(host)
		if err != nil {
			return "", 0, fmt.Errorf("invalid --redis-host value %q: %w", host, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid redis port in --redis-host %q: %w", host, err)
		}
		host = h
		port = n
	}

	if host == "" {
		return "", 0, fmt.Errorf("redis host cannot be empty")
	}
	if port <= 0 {
		return "", 0, fmt.Errorf("redis port must be positive, got %d", port)
	}

	return host, port, nil
}
