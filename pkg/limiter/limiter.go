package limiter

import (
	"time"

	internallimiter "github.com/SmitUplenchwar2687/tsmr/internal/limiter"
	"github.com/SmitUplenchwar2687/tsmr/pkg/clock"
)

// Pacer bounds how many measurements a downstream consumer may take.
type Pacer = internallimiter.Pacer

// Config holds consumer pacing parameters.
type Config = internallimiter.Config

// TokenBucket paces a consumer with a refilling token bucket.
type TokenBucket = internallimiter.TokenBucket

// Unlimited grants every request.
type Unlimited = internallimiter.Unlimited

// New returns a token bucket for cfg, or Unlimited when cfg.Rate is 0.
func New(cfg Config, c clock.Clock) (Pacer, error) {
	return internallimiter.New(cfg, c)
}

// NewTokenBucket creates a token bucket pacer.
func NewTokenBucket(rate int, window time.Duration, burst int, c clock.Clock) *TokenBucket {
	return internallimiter.NewTokenBucket(rate, window, burst, c)
}
