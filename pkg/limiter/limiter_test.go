package limiter

import (
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/pkg/clock"
)

func TestTokenBucketTake(t *testing.T) {
	vc := clock.NewVirtualClockMillis(0)
	tb := NewTokenBucket(4, time.Second, 4, vc)

	if got := tb.Take(10); got != 4 {
		t.Fatalf("Take(10) = %d, want 4", got)
	}
	if got := tb.Take(1); got != 0 {
		t.Fatalf("Take(1) on empty bucket = %d, want 0", got)
	}
	vc.Advance(500 * time.Millisecond)
	if got := tb.Take(10); got != 2 {
		t.Fatalf("Take(10) after half a window = %d, want 2", got)
	}
}

func TestNewUnlimited(t *testing.T) {
	p, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if got := p.Take(1000); got != 1000 {
		t.Fatalf("Take(1000) = %d, want 1000", got)
	}
}
