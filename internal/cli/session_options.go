package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/clock"
	"github.com/SmitUplenchwar2687/tsmr/internal/config"
	"github.com/SmitUplenchwar2687/tsmr/internal/limiter"
	"github.com/SmitUplenchwar2687/tsmr/internal/ring"
	"github.com/SmitUplenchwar2687/tsmr/internal/storage"
)

// sessionOptions gathers the config file and the ring, consumer and sink
// flags shared by the commands that run a ring.
type sessionOptions struct {
	configPath string

	capacity int
	order    string

	withConsumer bool
	lagMS        uint64
	batchSize    int
	rate         int
	window       time.Duration
	burst        int

	sink sinkOptions
}

func (o *sessionOptions) addFlags(cmd *cobra.Command, withConsumer bool) {
	def := config.Default()
	o.withConsumer = withConsumer

	cmd.Flags().StringVar(&o.configPath, "config", "", "path to JSON config file (flags override file values)")
	cmd.Flags().IntVar(&o.capacity, "capacity", def.Ring.Capacity, "ring capacity in measurements")
	cmd.Flags().StringVar(&o.order, "order", def.Ring.OrderPolicy, "out-of-order policy (accept, reject)")
	if withConsumer {
		cmd.Flags().Uint64Var(&o.lagMS, "lag-ms", def.Consumer.LagMS, "consumer extracts records older than now - lag")
		cmd.Flags().IntVar(&o.batchSize, "batch", def.Consumer.BatchSize, "max measurements per extraction")
		cmd.Flags().IntVar(&o.rate, "rate", def.Consumer.Rate, "consumer rate in measurements per window (0 = unlimited)")
		cmd.Flags().DurationVar(&o.window, "window", def.Consumer.Window, "consumer rate window")
		cmd.Flags().IntVar(&o.burst, "burst", def.Consumer.Burst, "consumer burst (0 = same as rate)")
	}
	o.sink.addFlags(cmd)
}

// resolve loads the config file, if any, applies explicitly set flags on
// top and validates the result.
func (o *sessionOptions) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.LoadFile(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("capacity") {
		cfg.Ring.Capacity = o.capacity
	}
	if changed("order") {
		cfg.Ring.OrderPolicy = o.order
	}
	if o.withConsumer {
		if changed("lag-ms") {
			cfg.Consumer.LagMS = o.lagMS
		}
		if changed("batch") {
			cfg.Consumer.BatchSize = o.batchSize
		}
		if changed("rate") {
			cfg.Consumer.Rate = o.rate
		}
		if changed("window") {
			cfg.Consumer.Window = o.window
		}
		if changed("burst") {
			cfg.Consumer.Burst = o.burst
		}
	}
	if err := o.sink.applyTo(cmd, &cfg.Sink); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// newRing builds the guarded ring described by cfg.
func newRing(cfg config.Config) (*ring.Guarded, error) {
	opts, err := cfg.RingOptions()
	if err != nil {
		return nil, err
	}
	r, err := ring.New(cfg.Ring.Capacity, opts...)
	if err != nil {
		return nil, err
	}
	return ring.NewGuarded(r), nil
}

// newSession builds the ring, pacer and sink for an offline replay.
func newSession(cfg config.Config, c clock.Clock) (*ring.Guarded, limiter.Pacer, storage.Sink, error) {
	g, err := newRing(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	pacer, err := limiter.New(cfg.Consumer.Pacing(), c)
	if err != nil {
		g.Close()
		return nil, nil, nil, err
	}
	sink, err := storage.New(cfg.Sink)
	if err != nil {
		g.Close()
		return nil, nil, nil, err
	}
	return g, pacer, sink, nil
}
