package clock

import (
	"time"

	internalclock "github.com/SmitUplenchwar2687/tsmr/internal/clock"
)

// Clock abstracts time so replay and consumer pacing work with both real
// and virtual time.
type Clock = internalclock.Clock

// RealClock delegates to the standard time package.
type RealClock = internalclock.RealClock

// VirtualClock is a controllable clock driven by measurement timestamps.
type VirtualClock = internalclock.VirtualClock

// NewRealClock creates a real wall-clock implementation.
func NewRealClock() *RealClock {
	return internalclock.NewRealClock()
}

// NewVirtualClock creates a virtual clock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return internalclock.NewVirtualClock(start)
}

// NewVirtualClockMillis creates a virtual clock at ms milliseconds since the epoch.
func NewVirtualClockMillis(ms uint64) *VirtualClock {
	return internalclock.NewVirtualClockMillis(ms)
}

// Millis returns c's current time in milliseconds since the epoch.
func Millis(c Clock) uint64 {
	return internalclock.Millis(c)
}
