package impair

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
)

func entries(ts ...uint64) []recorder.Entry {
	out := make([]recorder.Entry, len(ts))
	for i, t := range ts {
		out[i] = recorder.Insert(measurement.Measurement{TimestampMS: t, ID: i, Score: 0.8})
	}
	return out
}

func timestamps(es []recorder.Entry) []uint64 {
	out := make([]uint64, len(es))
	for i, e := range es {
		out[i] = e.TimestampMS
	}
	return out
}

func TestFixedLag(t *testing.T) {
	in := entries(0, 100, 200)
	got := FixedLag(in, 50)

	if diff := cmp.Diff([]uint64{50, 150, 250}, timestamps(got)); diff != "" {
		t.Errorf("FixedLag() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint64{0, 100, 200}, timestamps(in)); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
	if got[1].ID != 1 || got[1].Score != 0.8 {
		t.Errorf("non-timestamp fields changed: %+v", got[1])
	}
}

func TestFixedLag_NegativeClampsAtZero(t *testing.T) {
	got := FixedLag(entries(10, 100), -30)
	if diff := cmp.Diff([]uint64{0, 70}, timestamps(got)); diff != "" {
		t.Errorf("FixedLag() mismatch (-want +got):\n%s", diff)
	}
}

func TestJitterDrop_NoNoiseNoDrop(t *testing.T) {
	in := entries(10, 20, 30)
	got := JitterDrop(in, 0, 0, rand.New(rand.NewSource(1)))
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("JitterDrop() mismatch (-want +got):\n%s", diff)
	}
}

func TestJitterDrop_DropAll(t *testing.T) {
	got := JitterDrop(entries(10, 20, 30), 5, 1, rand.New(rand.NewSource(1)))
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestJitterDrop_Statistics(t *testing.T) {
	const n = 20000
	in := make([]recorder.Entry, n)
	for i := range in {
		in[i] = recorder.Insert(measurement.Measurement{TimestampMS: 1_000_000, ID: i})
	}

	got := JitterDrop(in, 20, 0.1, rand.New(rand.NewSource(42)))

	dropRate := 1 - float64(len(got))/n
	if math.Abs(dropRate-0.1) > 0.02 {
		t.Errorf("drop rate = %.3f, want about 0.1", dropRate)
	}

	var sum, sq float64
	for _, e := range got {
		d := float64(e.TimestampMS) - 1_000_000
		sum += d
		sq += d * d
	}
	mean := sum / float64(len(got))
	std := math.Sqrt(sq/float64(len(got)) - mean*mean)
	if math.Abs(mean) > 1.5 {
		t.Errorf("mean offset = %.2f, want about 0", mean)
	}
	if math.Abs(std-20) > 1.5 {
		t.Errorf("stddev = %.2f, want about 20", std)
	}
}

func TestJitterDrop_ClampsAtZero(t *testing.T) {
	got := JitterDrop(entries(0, 0, 0, 0, 0, 0, 0, 0), 1000, 0, rand.New(rand.NewSource(3)))
	for _, e := range got {
		if e.TimestampMS > 10_000 {
			t.Fatalf("timestamp %d wrapped around instead of clamping", e.TimestampMS)
		}
	}
}

func TestSortByArrival_Stable(t *testing.T) {
	es := entries(30, 10, 30, 20)
	SortByArrival(es)

	if diff := cmp.Diff([]uint64{10, 20, 30, 30}, timestamps(es)); diff != "" {
		t.Errorf("SortByArrival() mismatch (-want +got):\n%s", diff)
	}
	if es[2].ID != 0 || es[3].ID != 2 {
		t.Errorf("equal timestamps reordered: ids %d, %d", es[2].ID, es[3].ID)
	}
}

func TestApply(t *testing.T) {
	in := entries(300, 100, 200)

	got, err := Apply(in, Options{Mode: ModeLag, LagMS: 5})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{105, 205, 305}, timestamps(got)); diff != "" {
		t.Errorf("Apply(lag) mismatch (-want +got):\n%s", diff)
	}

	a, err := Apply(in, Options{Mode: ModeJitter, SigmaMS: 50, DropP: 0.2, Seed: 9})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Apply(in, Options{Mode: ModeJitter, SigmaMS: 50, DropP: 0.2, Seed: 9})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different output (-a +b):\n%s", diff)
	}
	for i := 1; i < len(a); i++ {
		if a[i].TimestampMS < a[i-1].TimestampMS {
			t.Fatalf("output not in arrival order: %v", timestamps(a))
		}
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"jitter", Options{Mode: ModeJitter, SigmaMS: 10, DropP: 0.5}, false},
		{"unknown mode", Options{Mode: "reorder"}, true},
		{"negative sigma", Options{Mode: ModeJitter, SigmaMS: -1}, true},
		{"drop above one", Options{Mode: ModeJitter, DropP: 1.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
