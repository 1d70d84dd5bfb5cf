package clock

import "time"

// Clock abstracts time so replay and consumer pacing can run in either
// wall time or measurement time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration
	// After returns a channel that receives the current time after duration d.
	After(d time.Duration) <-chan time.Time
}

// Millis returns c's current time as a millisecond timestamp, the unit
// measurements are stamped in. Times before the epoch clamp to 0.
func Millis(c Clock) uint64 {
	ms := c.Now().UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// FromMillis converts a measurement timestamp to a time.Time in UTC.
func FromMillis(ms uint64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

// RealClock delegates to the standard time package.
type RealClock struct{}

func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
