package limiter

import (
	"sync"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/clock"
)

// TokenBucket paces a consumer at a constant rate.
//
// Tokens are added at rate tokens per window up to burst. Each extracted
// measurement consumes one token. Driven by a VirtualClock it models a
// consumer that falls behind a faster producer in measurement time.
type TokenBucket struct {
	clock    clock.Clock
	rate     float64 // tokens per second
	capacity int

	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
	started  bool
}

// NewTokenBucket creates a bucket that starts full.
//   - rate: tokens added per window
//   - window: duration of the rate window
//   - burst: maximum tokens that can accumulate (0 means burst = rate)
//   - c: clock to use for time
func NewTokenBucket(rate int, window time.Duration, burst int, c clock.Clock) *TokenBucket {
	if burst <= 0 {
		burst = rate
	}
	return &TokenBucket{
		clock:    c,
		rate:     float64(rate) / window.Seconds(),
		capacity: burst,
	}
}

// refill must be called with tb.mu held.
func (tb *TokenBucket) refill(now time.Time) {
	if !tb.started {
		tb.tokens = float64(tb.capacity)
		tb.lastFill = now
		tb.started = true
		return
	}
	if elapsed := now.Sub(tb.lastFill).Seconds(); elapsed > 0 {
		tb.tokens += elapsed * tb.rate
		if tb.tokens > float64(tb.capacity) {
			tb.tokens = float64(tb.capacity)
		}
	}
	tb.lastFill = now
}

// Take grants up to n whole tokens.
func (tb *TokenBucket) Take(n int) int {
	if n <= 0 {
		return 0
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(tb.clock.Now())
	granted := min(n, int(tb.tokens))
	tb.tokens -= float64(granted)
	return granted
}
