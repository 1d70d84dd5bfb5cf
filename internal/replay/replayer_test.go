package replay

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/clock"
	"github.com/SmitUplenchwar2687/tsmr/internal/limiter"
	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
	"github.com/SmitUplenchwar2687/tsmr/internal/ring"
	"github.com/SmitUplenchwar2687/tsmr/internal/storage"
)

type harness struct {
	ring  *ring.Guarded
	clock *clock.VirtualClock
	sink  *storage.MemorySink
}

func newHarness(t *testing.T, capacity int, opts ...ring.Option) *harness {
	t.Helper()
	r, err := ring.New(capacity, opts...)
	if err != nil {
		t.Fatal(err)
	}
	g := ring.NewGuarded(r)
	t.Cleanup(g.Close)
	return &harness{
		ring:  g,
		clock: clock.NewVirtualClockMillis(0),
		sink:  storage.NewMemorySink(),
	}
}

func (h *harness) replayer(pacer limiter.Pacer, opts Options) *Replayer {
	return New(h.ring, h.clock, pacer, h.sink, opts)
}

func makeEntries(ts ...uint64) []recorder.Entry {
	entries := make([]recorder.Entry, len(ts))
	for i, t := range ts {
		entries[i] = recorder.Insert(measurement.Measurement{TimestampMS: t, ID: i, Score: 0.5})
	}
	return entries
}

func delivered(s *storage.MemorySink) []uint64 {
	var out []uint64
	for _, m := range s.Measurements() {
		out = append(out, m.TimestampMS)
	}
	return out
}

func equalTimestamps(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReplayer_StreamsThroughRing(t *testing.T) {
	h := newHarness(t, 3)
	r := h.replayer(nil, Options{})
	r.LoadEntries(makeEntries(10, 20, 30, 40))

	summary, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Inserted != 4 {
		t.Errorf("Inserted = %d, want 4", summary.Inserted)
	}
	if summary.Overwritten != 0 {
		t.Errorf("Overwritten = %d, want 0", summary.Overwritten)
	}
	if summary.Extracted != 4 {
		t.Errorf("Extracted = %d, want 4", summary.Extracted)
	}
	// One record per step once it falls behind the clock, then the flush.
	if summary.Batches != 4 {
		t.Errorf("Batches = %d, want 4", summary.Batches)
	}
	if summary.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", summary.Remaining)
	}
	if summary.Duration != 30*time.Millisecond {
		t.Errorf("Duration = %v, want 30ms", summary.Duration)
	}
	if got := delivered(h.sink); !equalTimestamps(got, []uint64{10, 20, 30, 40}) {
		t.Errorf("delivered = %v, want [10 20 30 40]", got)
	}
}

func TestReplayer_SlowConsumerLosesOldest(t *testing.T) {
	h := newHarness(t, 3)
	// A single token that never meaningfully refills.
	pacer := limiter.NewTokenBucket(1, time.Hour, 1, h.clock)
	r := h.replayer(pacer, Options{})
	r.LoadEntries(makeEntries(100, 110, 120, 130, 140, 150, 160, 170, 180, 190))

	summary, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Inserted != 10 {
		t.Errorf("Inserted = %d, want 10", summary.Inserted)
	}
	if summary.Overwritten != 6 {
		t.Errorf("Overwritten = %d, want 6", summary.Overwritten)
	}
	if summary.Extracted != 4 {
		t.Errorf("Extracted = %d, want 4", summary.Extracted)
	}
	if summary.Batches != 2 {
		t.Errorf("Batches = %d, want 2", summary.Batches)
	}
	if got := delivered(h.sink); !equalTimestamps(got, []uint64{100, 170, 180, 190}) {
		t.Errorf("delivered = %v, want [100 170 180 190]", got)
	}
	if summary.Duration != 90*time.Millisecond {
		t.Errorf("Duration = %v, want 90ms", summary.Duration)
	}
}

func TestReplayer_LagHoldsRecords(t *testing.T) {
	h := newHarness(t, 8)
	r := h.replayer(nil, Options{LagMS: 25})
	r.LoadEntries(makeEntries(0, 10, 20, 30, 40))

	var kinds []EventKind
	var cutoffs []uint64
	_, err := r.Run(context.Background(), func(ev Event) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventDelivered {
			cutoffs = append(cutoffs, ev.Batch.CutoffMS)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	// At t=30 cutoff is 5 (extracts 0); at t=40 cutoff is 15 (extracts 10).
	if !equalTimestamps(cutoffs, []uint64{5, 15}) {
		t.Errorf("delivered cutoffs = %v, want [5 15]", cutoffs)
	}
	if kinds[len(kinds)-1] != EventFlushed {
		t.Errorf("last event = %s, want %s", kinds[len(kinds)-1], EventFlushed)
	}
	if got := delivered(h.sink); !equalTimestamps(got, []uint64{0, 10, 20, 30, 40}) {
		t.Errorf("delivered = %v", got)
	}
}

func TestReplayer_Corrections(t *testing.T) {
	h := newHarness(t, 4)
	r := h.replayer(nil, Options{LagMS: 1000})
	r.LoadEntries([]recorder.Entry{
		recorder.Insert(measurement.Measurement{TimestampMS: 10, ID: 1, Score: 0.4}),
		recorder.Insert(measurement.Measurement{TimestampMS: 20, ID: 2, Score: 0.4}),
		recorder.Correction(measurement.Measurement{TimestampMS: 10, ID: 1, Score: 0.9}),
		recorder.Correction(measurement.Measurement{TimestampMS: 10, ID: 2, Score: 0.9}),
	})

	var unmatched int
	summary, err := r.Run(context.Background(), func(ev Event) {
		if ev.Kind == EventUnmatched {
			unmatched++
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Corrected != 1 {
		t.Errorf("Corrected = %d, want 1", summary.Corrected)
	}
	if summary.CorrectionMisses != 1 || unmatched != 1 {
		t.Errorf("CorrectionMisses = %d (events %d), want 1", summary.CorrectionMisses, unmatched)
	}
	got := h.sink.Measurements()
	if len(got) != 2 {
		t.Fatalf("delivered %d measurements, want 2", len(got))
	}
	if got[0].Score != 0.9 {
		t.Errorf("corrected score = %v, want 0.9", got[0].Score)
	}
	if got[1].Score != 0.4 {
		t.Errorf("uncorrected score = %v, want 0.4", got[1].Score)
	}
}

func TestReplayer_RejectPolicy(t *testing.T) {
	entries := makeEntries(10, 30, 20)

	h := newHarness(t, 4, ring.WithOrderPolicy(ring.RejectOutOfOrder))
	r := h.replayer(nil, Options{LagMS: 1000})
	r.LoadEntries(entries)
	summary, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", summary.Rejected)
	}
	if summary.Extracted != 2 {
		t.Errorf("Extracted = %d, want 2", summary.Extracted)
	}

	sorted := newHarness(t, 4, ring.WithOrderPolicy(ring.RejectOutOfOrder))
	r = sorted.replayer(nil, Options{LagMS: 1000, Sort: true})
	r.LoadEntries(entries)
	summary, err = r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Rejected != 0 {
		t.Errorf("sorted Rejected = %d, want 0", summary.Rejected)
	}
	if got := delivered(sorted.sink); !equalTimestamps(got, []uint64{10, 20, 30}) {
		t.Errorf("delivered = %v, want [10 20 30]", got)
	}
}

func TestReplayer_LateEntryWaitsBehindNewerHead(t *testing.T) {
	h := newHarness(t, 4)
	r := h.replayer(nil, Options{})
	r.LoadEntries(makeEntries(50, 10))

	summary, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	// The stale entry never moves the clock back and only leaves with the flush.
	if summary.Batches != 1 {
		t.Errorf("Batches = %d, want 1", summary.Batches)
	}
	if got := delivered(h.sink); !equalTimestamps(got, []uint64{50, 10}) {
		t.Errorf("delivered = %v, want [50 10]", got)
	}
	if summary.Duration != 0 {
		t.Errorf("Duration = %v, want 0", summary.Duration)
	}
}

func TestReplayer_WithFilter(t *testing.T) {
	h := newHarness(t, 8)
	r := h.replayer(nil, Options{Filter: Filter{IDs: []int{0, 2}}})
	r.LoadEntries(makeEntries(10, 20, 30, 40))

	summary, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if summary.TotalEntries != 4 {
		t.Errorf("TotalEntries = %d, want 4", summary.TotalEntries)
	}
	if summary.Filtered != 2 {
		t.Errorf("Filtered = %d, want 2", summary.Filtered)
	}
	if got := delivered(h.sink); !equalTimestamps(got, []uint64{10, 30}) {
		t.Errorf("delivered = %v, want [10 30]", got)
	}
}

func TestReplayer_FilterMatchesNothing(t *testing.T) {
	h := newHarness(t, 2)
	r := h.replayer(nil, Options{Filter: Filter{IDs: []int{99}}})
	r.LoadEntries(makeEntries(10, 20))

	summary, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Filtered != 0 || summary.Batches != 0 {
		t.Errorf("summary = %+v, want nothing replayed", summary)
	}
}

func TestReplayer_NoEntries(t *testing.T) {
	h := newHarness(t, 2)
	if _, err := h.replayer(nil, Options{}).Run(context.Background(), nil); err == nil {
		t.Error("expected error with no entries loaded")
	}
}

func TestReplayer_ContextCanceled(t *testing.T) {
	h := newHarness(t, 2)
	r := h.replayer(nil, Options{})
	r.LoadEntries(makeEntries(10, 20, 30))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReplayer_SinkError(t *testing.T) {
	h := newHarness(t, 2)
	if err := h.sink.Close(); err != nil {
		t.Fatal(err)
	}
	r := h.replayer(nil, Options{})
	r.LoadEntries(makeEntries(10, 20))

	if _, err := r.Run(context.Background(), nil); !errors.Is(err, storage.ErrSinkClosed) {
		t.Errorf("err = %v, want ErrSinkClosed", err)
	}
}

func TestReplayer_Load(t *testing.T) {
	var buf bytes.Buffer
	if err := recorder.WriteJSONL(&buf, makeEntries(5, 15)); err != nil {
		t.Fatal(err)
	}

	h := newHarness(t, 4)
	r := h.replayer(nil, Options{})
	if err := r.Load(&buf); err != nil {
		t.Fatal(err)
	}
	summary, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Extracted != 2 {
		t.Errorf("Extracted = %d, want 2", summary.Extracted)
	}
}

func TestReplayer_FlushRespectsBatchSize(t *testing.T) {
	h := newHarness(t, 8)
	r := h.replayer(nil, Options{BatchSize: 2})
	for _, e := range makeEntries(1, 2, 3, 4, 5) {
		if _, _, err := h.ring.Push(e.Measurement); err != nil {
			t.Fatal(err)
		}
	}

	var s Summary
	if err := r.Flush(context.Background(), &s, nil); err != nil {
		t.Fatal(err)
	}
	if s.Batches != 3 || s.Extracted != 5 {
		t.Errorf("Batches = %d, Extracted = %d, want 3 and 5", s.Batches, s.Extracted)
	}
	if h.ring.Len() != 0 {
		t.Errorf("ring Len = %d after flush, want 0", h.ring.Len())
	}
}

func TestReplayer_FlushDrainsMaxTimestamp(t *testing.T) {
	h := newHarness(t, 4)
	r := h.replayer(nil, Options{BatchSize: 8})
	for _, ts := range []uint64{math.MaxUint64, 5} {
		if _, _, err := h.ring.Push(measurement.Measurement{TimestampMS: ts, ID: 1}); err != nil {
			t.Fatal(err)
		}
	}

	var s Summary
	if err := r.Flush(context.Background(), &s, nil); err != nil {
		t.Fatal(err)
	}
	if got := delivered(h.sink); !equalTimestamps(got, []uint64{math.MaxUint64, 5}) {
		t.Errorf("delivered %v, want both records in ring order", got)
	}
	if h.ring.Len() != 0 {
		t.Errorf("ring Len = %d after flush, want 0", h.ring.Len())
	}
}
