package measurement

import "fmt"

// NoID marks a detection that has not been assigned a track identity.
const NoID = -1

// Measurement is one time-stamped detection observation.
// The buffer treats every field as opaque; nothing is validated.
type Measurement struct {
	TimestampMS uint64  `json:"ts_ms"` // logical time in milliseconds
	ID          int     `json:"id"`    // track id, or NoID
	X           float32 `json:"x"`
	Y           float32 `json:"y"`
	W           float32 `json:"w"`
	H           float32 `json:"h"`
	Score       float32 `json:"score"`
}

// HasID reports whether the measurement carries a track identity.
func (m Measurement) HasID() bool {
	return m.ID != NoID
}

// SameKey reports whether m and o address the same stored record,
// i.e. both timestamp and id match.
func (m Measurement) SameKey(o Measurement) bool {
	return m.TimestampMS == o.TimestampMS && m.ID == o.ID
}

func (m Measurement) String() string {
	return fmt.Sprintf("ts=%d id=%d box=(%.3f,%.3f,%.3f,%.3f) score=%.2f",
		m.TimestampMS, m.ID, m.X, m.Y, m.W, m.H, m.Score)
}
