package recorder

import (
	"io"

	internalrecorder "github.com/SmitUplenchwar2687/tsmr/internal/recorder"
	"github.com/SmitUplenchwar2687/tsmr/pkg/ring"
)

// Entry is one line of a recorded detection stream.
type Entry = internalrecorder.Entry

// Recorder captures entries for later replay.
type Recorder = internalrecorder.Recorder

// New creates a new Recorder. If w is non-nil, entries are also streamed
// to it as JSON Lines.
func New(w io.Writer) *Recorder {
	return internalrecorder.New(w)
}

// Insert wraps m as a plain entry.
func Insert(m ring.Measurement) Entry {
	return internalrecorder.Insert(m)
}

// Correction wraps m as a correction entry.
func Correction(m ring.Measurement) Entry {
	return internalrecorder.Correction(m)
}

// LoadJSONL reads entries from JSON Lines.
func LoadJSONL(r io.Reader) ([]Entry, error) {
	return internalrecorder.LoadJSONL(r)
}

// WriteJSONL encodes entries as JSON Lines.
func WriteJSONL(w io.Writer, entries []Entry) error {
	return internalrecorder.WriteJSONL(w, entries)
}
