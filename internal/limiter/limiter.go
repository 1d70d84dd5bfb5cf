package limiter

import (
	"fmt"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/clock"
)

// Pacer bounds how many measurements a downstream consumer may take.
type Pacer interface {
	// Take grants up to n units and returns how many were granted.
	Take(n int) int
}

// Config holds consumer pacing parameters.
type Config struct {
	Rate   int           `json:"rate"`   // measurements per window; 0 = unlimited
	Window time.Duration `json:"window"` // window duration
	Burst  int           `json:"burst"`  // max accumulated tokens (0 = rate)
}

// Validate checks a pacing config. A zero rate is valid and means unlimited.
func (c Config) Validate() error {
	if c.Rate < 0 {
		return fmt.Errorf("consumer rate must not be negative, got %d", c.Rate)
	}
	if c.Rate > 0 && c.Window <= 0 {
		return fmt.Errorf("consumer window must be positive, got %s", c.Window)
	}
	if c.Burst < 0 {
		return fmt.Errorf("consumer burst must not be negative, got %d", c.Burst)
	}
	return nil
}

// New returns a token bucket for cfg, or Unlimited when cfg.Rate is 0.
func New(cfg Config, c clock.Clock) (Pacer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Rate == 0 {
		return Unlimited{}, nil
	}
	return NewTokenBucket(cfg.Rate, cfg.Window, cfg.Burst, c), nil
}

// Unlimited grants every request.
type Unlimited struct{}

func (Unlimited) Take(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
