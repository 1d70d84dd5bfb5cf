package clock

import (
	"fmt"
	"sync"
	"time"
)

// VirtualClock is a manually driven clock. The replayer moves it to each
// measurement's timestamp so that cutoffs and consumer pacing follow
// measurement time rather than wall time.
//
// Thread-safe for concurrent use.
type VirtualClock struct {
	mu      sync.RWMutex
	current time.Time
	waiters []waiter
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewVirtualClock creates a VirtualClock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{
		current: start,
	}
}

// NewVirtualClockMillis creates a VirtualClock starting at a millisecond timestamp.
func NewVirtualClockMillis(ms uint64) *VirtualClock {
	return NewVirtualClock(FromMillis(ms))
}

func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *VirtualClock) Since(t time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Sub(t)
}

// After returns a channel that fires once the clock reaches now+d.
// A non-positive d fires immediately.
func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}

	c.waiters = append(c.waiters, waiter{
		deadline: c.current.Add(d),
		ch:       ch,
	})
	return ch
}

// Advance moves the clock forward by d. Panics if d is negative.
func (c *VirtualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	c.drainWaiters()
}

// Set moves the clock to t. Panics if t is before the current time.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.current) {
		panic("clock: cannot set time to the past")
	}

	c.current = t
	c.drainWaiters()
}

// SetMillis moves the clock forward to ms. Unlike Set it never moves
// backwards: a timestamp behind the current time is ignored and reported
// as false, since replayed streams may arrive out of order.
func (c *VirtualClock) SetMillis(ms uint64) bool {
	t := FromMillis(ms)

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.current) {
		return false
	}
	c.current = t
	c.drainWaiters()
	return true
}

// String formats the current virtual time with millisecond precision.
func (c *VirtualClock) String() string {
	return fmt.Sprintf("virtual(%s)", c.Now().UTC().Format("15:04:05.000"))
}

// drainWaiters fires every waiter whose deadline has been reached.
// Must be called with c.mu held.
func (c *VirtualClock) drainWaiters() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.current) {
			w.ch <- c.current
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}
