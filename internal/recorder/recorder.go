package recorder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
)

// maxLineBytes bounds a single JSON Lines record.
const maxLineBytes = 1 << 20

// Recorder captures detection entries for later replay.
// Thread-safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	writer  io.Writer // optional: stream entries as they arrive
}

// New creates a new Recorder. If w is non-nil, entries are also
// written to w as JSON Lines as they arrive.
func New(w io.Writer) *Recorder {
	return &Recorder{
		writer: w,
	}
}

// Record captures a single entry.
func (r *Recorder) Record(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)

	if r.writer != nil {
		if err := json.NewEncoder(r.writer).Encode(e); err != nil {
			return fmt.Errorf("streaming entry: %w", err)
		}
	}
	return nil
}

// Entries returns a copy of all recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ExportJSONL writes all entries to w, one JSON object per line.
func (r *Recorder) ExportJSONL(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return WriteJSONL(w, r.entries)
}

// ExportFile writes all entries to a JSON Lines file.
func (r *Recorder) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.ExportJSONL(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteJSONL encodes entries as JSON Lines.
func WriteJSONL(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encoding entry %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes entries to path as JSON Lines.
func WriteFile(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSONL(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadJSONL reads entries from JSON Lines. Blank lines are skipped and a
// line without an "id" decodes to measurement.NoID.
func LoadJSONL(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var entries []Entry
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		e := Entry{Measurement: measurement.Measurement{ID: measurement.NoID}}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	return entries, nil
}

// LoadFile reads entries from a JSON Lines file.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadJSONL(f)
}
