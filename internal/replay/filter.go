package replay

import (
	"slices"

	"github.com/SmitUplenchwar2687/tsmr/internal/label"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
)

// Filter defines criteria for selecting entries during replay.
type Filter struct {
	IDs      []int   // Only include these track ids (empty = all)
	MinScore float32 // Only include detections scoring at least this much (0 = no limit)
	AfterMS  uint64  // Only include entries strictly after this timestamp (0 = no limit)
	BeforeMS uint64  // Only include entries strictly before this timestamp (0 = no limit)

	// DropTiny excludes boxes that are tiny on an ImageW x ImageH frame.
	// Ignored unless both dimensions are positive.
	DropTiny bool
	ImageW   int
	ImageH   int
}

// Match returns true if the entry passes the filter.
func (f *Filter) Match(e recorder.Entry) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, e.ID) {
		return false
	}
	if f.MinScore > 0 && e.Score < f.MinScore {
		return false
	}
	if f.AfterMS > 0 && e.TimestampMS <= f.AfterMS {
		return false
	}
	if f.BeforeMS > 0 && e.TimestampMS >= f.BeforeMS {
		return false
	}
	if f.dropsTiny() && label.IsTiny(e.W, e.H, f.ImageW, f.ImageH) {
		return false
	}
	return true
}

// Empty reports whether the filter matches everything.
func (f *Filter) Empty() bool {
	return len(f.IDs) == 0 && f.MinScore == 0 && f.AfterMS == 0 && f.BeforeMS == 0 && !f.dropsTiny()
}

func (f *Filter) dropsTiny() bool {
	return f.DropTiny && f.ImageW > 0 && f.ImageH > 0
}
