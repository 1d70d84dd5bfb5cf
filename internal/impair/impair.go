// Package impair degrades a recorded detection stream the way a lossy
// link would, so the ring sees late and missing frames.
package impair

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
)

const (
	ModeLag    = "lag"
	ModeJitter = "jitter"
)

// Options selects an impairment and its parameters.
type Options struct {
	Mode    string  // lag | jitter
	LagMS   int64   // fixed shift for ModeLag, may be negative
	SigmaMS float64 // Gaussian jitter for ModeJitter
	DropP   float64 // drop probability for ModeJitter
	Seed    int64   // 0 = time based
}

// DefaultOptions mirrors the replay tooling defaults.
func DefaultOptions() Options {
	return Options{
		Mode:    ModeLag,
		LagMS:   50,
		SigmaMS: 20,
		DropP:   0.05,
	}
}

// Validate checks the mode and parameter ranges.
func (o Options) Validate() error {
	switch o.Mode {
	case ModeLag, ModeJitter:
	default:
		return fmt.Errorf("unknown impairment mode %q, must be lag or jitter", o.Mode)
	}
	if o.SigmaMS < 0 {
		return fmt.Errorf("sigma must not be negative, got %g", o.SigmaMS)
	}
	if o.DropP < 0 || o.DropP > 1 {
		return fmt.Errorf("drop probability must be in [0, 1], got %g", o.DropP)
	}
	return nil
}

// Apply impairs entries according to opts and returns them in arrival
// order. The input slice is not modified.
func Apply(entries []recorder.Entry, opts Options) ([]recorder.Entry, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var out []recorder.Entry
	switch opts.Mode {
	case ModeLag:
		out = FixedLag(entries, opts.LagMS)
	case ModeJitter:
		out = JitterDrop(entries, opts.SigmaMS, opts.DropP, rand.New(rand.NewSource(seed)))
	}
	SortByArrival(out)
	return out, nil
}

// FixedLag shifts every timestamp by lagMS, clamping at zero.
func FixedLag(entries []recorder.Entry, lagMS int64) []recorder.Entry {
	out := make([]recorder.Entry, len(entries))
	for i, e := range entries {
		e.TimestampMS = shift(e.TimestampMS, float64(lagMS))
		out[i] = e
	}
	return out
}

// JitterDrop drops each entry with probability dropP and adds zero-mean
// Gaussian noise with standard deviation sigmaMS to the survivors.
func JitterDrop(entries []recorder.Entry, sigmaMS, dropP float64, rng *rand.Rand) []recorder.Entry {
	out := make([]recorder.Entry, 0, len(entries))
	for _, e := range entries {
		if rng.Float64() < dropP {
			continue
		}
		e.TimestampMS = shift(e.TimestampMS, rng.NormFloat64()*sigmaMS)
		out = append(out, e)
	}
	return out
}

// SortByArrival orders entries by timestamp, keeping ties in input order.
func SortByArrival(entries []recorder.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TimestampMS < entries[j].TimestampMS
	})
}

// shift truncates towards zero and never goes below the epoch.
func shift(ts uint64, deltaMS float64) uint64 {
	v := float64(ts) + deltaMS
	if v <= 0 {
		return 0
	}
	return uint64(v)
}
