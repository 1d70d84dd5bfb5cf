package generate

import (
	internalgenerate "github.com/SmitUplenchwar2687/tsmr/internal/generate"
	"github.com/SmitUplenchwar2687/tsmr/pkg/recorder"
	"github.com/SmitUplenchwar2687/tsmr/pkg/ring"
)

const (
	PatternSteady = internalgenerate.PatternSteady
	PatternBurst  = internalgenerate.PatternBurst
	PatternRamp   = internalgenerate.PatternRamp
)

// Options controls how a synthetic detection stream is generated.
type Options = internalgenerate.Options

// DefaultOptions returns defaults aligned with the CLI.
func DefaultOptions() Options {
	return internalgenerate.DefaultOptions()
}

// Measurements creates synthetic detections in timestamp order.
func Measurements(opts Options) ([]ring.Measurement, error) {
	return internalgenerate.Measurements(opts)
}

// Entries creates a detection stream in arrival order, with corrections
// interleaved when opts.CorrectionRate is positive.
func Entries(opts Options) ([]recorder.Entry, error) {
	return internalgenerate.Entries(opts)
}
