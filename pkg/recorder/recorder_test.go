package recorder

import (
	"bytes"
	"testing"

	"github.com/SmitUplenchwar2687/tsmr/pkg/ring"
)

func TestRecorderRoundtrip(t *testing.T) {
	rec := New(nil)
	if err := rec.Record(Insert(ring.Measurement{TimestampMS: 100, ID: 1, Score: 0.5})); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if err := rec.Record(Correction(ring.Measurement{TimestampMS: 100, ID: 1, Score: 0.9})); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rec.ExportJSONL(&buf); err != nil {
		t.Fatalf("ExportJSONL() failed: %v", err)
	}
	entries, err := LoadJSONL(&buf)
	if err != nil {
		t.Fatalf("LoadJSONL() failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Correction || !entries[1].Correction {
		t.Fatalf("entries = %+v", entries)
	}
}
