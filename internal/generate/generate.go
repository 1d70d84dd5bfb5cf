package generate

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
)

const (
	// PatternSteady emits frames at a fixed interval.
	PatternSteady = "steady"
	// PatternBurst emits clustered frames with quiet gaps.
	PatternBurst = "burst"
	// PatternRamp emits frames whose density increases over time.
	PatternRamp = "ramp"
)

// Options controls how a synthetic detection stream is generated.
type Options struct {
	Count    int           // number of detections
	Tracks   int           // distinct track ids, assigned round-robin
	Duration time.Duration // time span covered by the stream
	Pattern  string
	StartMS  uint64 // first timestamp; 0 = now
	Seed     int64  // 0 = time based

	// CorrectionRate is the fraction of detections later refined by a
	// correction entry, emitted CorrectionDelay detections after the
	// original.
	CorrectionRate  float64
	CorrectionDelay int
}

// DefaultOptions returns defaults aligned with the CLI.
func DefaultOptions() Options {
	return Options{
		Count:           100,
		Tracks:          3,
		Duration:        10 * time.Second,
		Pattern:         PatternSteady,
		CorrectionDelay: 3,
	}
}

// Measurements creates synthetic detections in timestamp order.
func Measurements(opts Options) ([]measurement.Measurement, error) {
	if err := validate(&opts); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	return measurements(rng, opts), nil
}

// Entries creates a detection stream in arrival order, interleaving
// correction entries when CorrectionRate is positive.
func Entries(opts Options) ([]recorder.Entry, error) {
	if err := validate(&opts); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	ms := measurements(rng, opts)

	type pending struct {
		due int
		m   measurement.Measurement
	}
	var queue []pending
	entries := make([]recorder.Entry, 0, len(ms))
	for i, m := range ms {
		entries = append(entries, recorder.Insert(m))
		if opts.CorrectionRate > 0 && rng.Float64() < opts.CorrectionRate {
			fixed := m
			fixed.Score = score(rng)
			queue = append(queue, pending{due: i + opts.CorrectionDelay, m: fixed})
		}
		for len(queue) > 0 && queue[0].due <= i {
			entries = append(entries, recorder.Correction(queue[0].m))
			queue = queue[1:]
		}
	}
	for _, p := range queue {
		entries = append(entries, recorder.Correction(p.m))
	}
	return entries, nil
}

func validate(opts *Options) error {
	if opts.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", opts.Count)
	}
	if opts.Tracks <= 0 {
		return fmt.Errorf("tracks must be positive, got %d", opts.Tracks)
	}
	if opts.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", opts.Duration)
	}
	if opts.CorrectionRate < 0 || opts.CorrectionRate > 1 {
		return fmt.Errorf("correction rate must be in [0, 1], got %g", opts.CorrectionRate)
	}
	if opts.CorrectionDelay < 0 {
		return fmt.Errorf("correction delay must not be negative, got %d", opts.CorrectionDelay)
	}

	if opts.Pattern == "" {
		opts.Pattern = PatternSteady
	}
	if opts.StartMS == 0 {
		opts.StartMS = uint64(time.Now().Truncate(time.Second).UnixMilli())
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return nil
}

func measurements(rng *rand.Rand, opts Options) []measurement.Measurement {
	var offsets []time.Duration
	switch opts.Pattern {
	case PatternBurst:
		offsets = burstOffsets(rng, opts.Count, opts.Duration)
	case PatternRamp:
		offsets = rampOffsets(opts.Count, opts.Duration)
	default: // steady and unknown patterns default to steady behavior.
		offsets = steadyOffsets(opts.Count, opts.Duration)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	ms := make([]measurement.Measurement, len(offsets))
	for i, off := range offsets {
		w := 0.01 + rng.Float32()*0.19
		h := 0.01 + rng.Float32()*0.19
		ms[i] = measurement.Measurement{
			TimestampMS: opts.StartMS + uint64(off/time.Millisecond),
			ID:          i % opts.Tracks,
			X:           rng.Float32() * (1 - w),
			Y:           rng.Float32() * (1 - h),
			W:           w,
			H:           h,
			Score:       score(rng),
		}
	}
	return ms
}

// score draws a confidence in [0.25, 1).
func score(rng *rand.Rand) float32 {
	return 0.25 + rng.Float32()*0.75
}

func steadyOffsets(count int, dur time.Duration) []time.Duration {
	interval := dur / time.Duration(count)
	out := make([]time.Duration, count)
	for i := range out {
		out[i] = time.Duration(i) * interval
	}
	return out
}

func burstOffsets(rng *rand.Rand, count int, dur time.Duration) []time.Duration {
	out := make([]time.Duration, 0, count)
	numBursts := 4
	burstSize := count / numBursts
	burstGap := dur / time.Duration(numBursts)
	spread := max(min(burstGap, time.Second), 1)

	for b := 0; b < numBursts; b++ {
		burstStart := time.Duration(b) * burstGap
		for i := 0; i < burstSize; i++ {
			out = append(out, burstStart+time.Duration(rng.Int63n(int64(spread))))
		}
	}

	// Fill remaining.
	for len(out) < count {
		out = append(out, time.Duration(rng.Int63n(int64(dur))))
	}
	return out
}

func rampOffsets(count int, dur time.Duration) []time.Duration {
	out := make([]time.Duration, count)
	for i := range out {
		// Quadratic spacing concentrates frames towards the end.
		frac := float64(i) / float64(count)
		out[i] = time.Duration(frac * frac * float64(dur))
	}
	return out
}
