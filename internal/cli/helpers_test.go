package cli

import (
	"bytes"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeStream(t *testing.T, entries []recorder.Entry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "detections.jsonl")
	if err := recorder.WriteFile(path, entries); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func det(ts uint64, id int, score float32) measurement.Measurement {
	return measurement.Measurement{TimestampMS: ts, ID: id, X: 0.1, Y: 0.2, W: 0.3, H: 0.4, Score: score}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}
