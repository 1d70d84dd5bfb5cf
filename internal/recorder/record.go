package recorder

import "github.com/SmitUplenchwar2687/tsmr/internal/measurement"

// Entry is one line of a recorded detection stream. A correction entry
// carries updated content for a measurement already in the stream and is
// applied as a correction rather than a new insert.
type Entry struct {
	measurement.Measurement
	Correction bool `json:"correction,omitempty"`
}

// Insert wraps m as a plain entry.
func Insert(m measurement.Measurement) Entry {
	return Entry{Measurement: m}
}

// Correction wraps m as a correction entry.
func Correction(m measurement.Measurement) Entry {
	return Entry{Measurement: m, Correction: true}
}
