package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/clock"
	"github.com/SmitUplenchwar2687/tsmr/internal/limiter"
	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
	"github.com/SmitUplenchwar2687/tsmr/internal/ring"
	"github.com/SmitUplenchwar2687/tsmr/internal/storage"
)

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 32

// Options tune a replay run.
type Options struct {
	LagMS     uint64  // consumer extracts records older than now - LagMS
	BatchSize int     // max records per extraction
	Speed     float64 // 1.0 = real-time, 10.0 = 10x, 0 = instant
	Sort      bool    // replay in timestamp order instead of arrival order
	Filter    Filter
}

// EventKind says what happened to a replayed entry.
type EventKind string

const (
	EventInserted  EventKind = "inserted"
	EventOverwrote EventKind = "overwrote"
	EventRejected  EventKind = "rejected"
	EventCorrected EventKind = "corrected"
	EventUnmatched EventKind = "unmatched"
	EventDelivered EventKind = "delivered"
	EventFlushed   EventKind = "flushed"
)

// Event is reported to the Run callback for each entry and each batch.
type Event struct {
	Kind    EventKind                `json:"kind"`
	Entry   recorder.Entry           `json:"entry"`
	Evicted *measurement.Measurement `json:"evicted,omitempty"` // set for EventOverwrote
	Batch   *storage.Batch           `json:"batch,omitempty"`   // set for EventDelivered and EventFlushed
	NowMS   uint64                   `json:"now_ms"`            // virtual time of the event
}

// Summary aggregates replay statistics.
type Summary struct {
	TotalEntries     int           `json:"total_entries"`
	Filtered         int           `json:"filtered"`
	Inserted         int           `json:"inserted"`
	Overwritten      int           `json:"overwritten"`
	Rejected         int           `json:"rejected"`
	Corrected        int           `json:"corrected"`
	CorrectionMisses int           `json:"correction_misses"`
	Extracted        int           `json:"extracted"`
	Batches          int           `json:"batches"`
	Remaining        int           `json:"remaining"`
	Duration         time.Duration `json:"duration"`      // virtual time span
	WallDuration     time.Duration `json:"wall_duration"` // actual wall clock time
}

// Replayer streams recorded detections into a ring while a paced consumer
// drains it into a sink.
type Replayer struct {
	ring    *ring.Guarded
	clock   *clock.VirtualClock
	pacer   limiter.Pacer
	sink    storage.Sink
	opts    Options
	entries []recorder.Entry
}

// New creates a new replayer. A nil pacer never throttles the consumer and
// a nil sink discards batches.
func New(g *ring.Guarded, vc *clock.VirtualClock, pacer limiter.Pacer, sink storage.Sink, opts Options) *Replayer {
	if pacer == nil {
		pacer = limiter.Unlimited{}
	}
	if sink == nil {
		sink = storage.Discard{}
	}
	if opts.Speed < 0 {
		opts.Speed = 0
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Replayer{
		ring:  g,
		clock: vc,
		pacer: pacer,
		sink:  sink,
		opts:  opts,
	}
}

// Load reads entries from a JSONL reader.
func (r *Replayer) Load(reader io.Reader) error {
	entries, err := recorder.LoadJSONL(reader)
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}
	r.entries = entries
	return nil
}

// LoadEntries sets the entries directly.
func (r *Replayer) LoadEntries(entries []recorder.Entry) {
	r.entries = make([]recorder.Entry, len(entries))
	copy(r.entries, entries)
}

// Run replays all loaded entries. After each entry the consumer extracts
// whatever has aged past the lag, as far as the pacer allows. Whatever is
// still buffered at the end is flushed. The callback, if any, sees every
// entry outcome and every delivered batch.
func (r *Replayer) Run(ctx context.Context, cb func(Event)) (*Summary, error) {
	if len(r.entries) == 0 {
		return nil, fmt.Errorf("no entries loaded")
	}

	ordered := make([]recorder.Entry, len(r.entries))
	copy(ordered, r.entries)
	if r.opts.Sort {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].TimestampMS < ordered[j].TimestampMS
		})
	}

	var selected []recorder.Entry
	for _, e := range ordered {
		if r.opts.Filter.Match(e) {
			selected = append(selected, e)
		}
	}

	summary := &Summary{
		TotalEntries: len(ordered),
		Filtered:     len(selected),
	}
	if len(selected) == 0 {
		summary.Remaining = r.ring.Len()
		return summary, nil
	}

	emit := func(ev Event) {
		if cb != nil {
			cb(ev)
		}
	}

	wallStart := time.Now()
	r.clock.SetMillis(selected[0].TimestampMS)
	startMS := clock.Millis(r.clock)

	for _, e := range selected {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		prev := clock.Millis(r.clock)
		if r.clock.SetMillis(e.TimestampMS) && r.opts.Speed > 0 {
			gap := time.Duration(e.TimestampMS-prev) * time.Millisecond
			// Sleep for scaled wall-clock time for visual effect.
			if scaled := time.Duration(float64(gap) / r.opts.Speed); scaled > time.Millisecond {
				select {
				case <-ctx.Done():
					return summary, ctx.Err()
				case <-time.After(scaled):
				}
			}
		}
		now := clock.Millis(r.clock)

		if err := r.apply(e, now, summary, emit); err != nil {
			return summary, err
		}
		if err := r.consume(ctx, now, summary, emit); err != nil {
			return summary, err
		}
	}

	if err := r.Flush(ctx, summary, emit); err != nil {
		return summary, err
	}

	summary.Remaining = r.ring.Len()
	summary.Duration = time.Duration(clock.Millis(r.clock)-startMS) * time.Millisecond
	summary.WallDuration = time.Since(wallStart)
	return summary, nil
}

func (r *Replayer) apply(e recorder.Entry, now uint64, s *Summary, emit func(Event)) error {
	if e.Correction {
		err := r.ring.Correct(e.Measurement)
		switch {
		case err == nil:
			s.Corrected++
			emit(Event{Kind: EventCorrected, Entry: e, NowMS: now})
		case errors.Is(err, ring.ErrNotFound):
			s.CorrectionMisses++
			emit(Event{Kind: EventUnmatched, Entry: e, NowMS: now})
		default:
			return fmt.Errorf("correcting %s: %w", e.Measurement, err)
		}
		return nil
	}

	evicted, overwrote, err := r.ring.Push(e.Measurement)
	switch {
	case err == nil && overwrote:
		s.Inserted++
		s.Overwritten++
		emit(Event{Kind: EventOverwrote, Entry: e, Evicted: &evicted, NowMS: now})
	case err == nil:
		s.Inserted++
		emit(Event{Kind: EventInserted, Entry: e, NowMS: now})
	case errors.Is(err, ring.ErrOutOfOrder):
		s.Rejected++
		emit(Event{Kind: EventRejected, Entry: e, NowMS: now})
	default:
		return fmt.Errorf("inserting %s: %w", e.Measurement, err)
	}
	return nil
}

// consume extracts aged records in paced batches. Grants the consumer
// does not use are forfeited, like an idle worker's time.
func (r *Replayer) consume(ctx context.Context, now uint64, s *Summary, emit func(Event)) error {
	if now <= r.opts.LagMS {
		return nil
	}
	cutoff := now - r.opts.LagMS

	for {
		if st := r.ring.Stats(); st.Len == 0 || st.OldestMS >= cutoff {
			return nil
		}
		granted := r.pacer.Take(r.opts.BatchSize)
		if granted == 0 {
			return nil
		}
		ms := r.ring.ExtractOlderThan(cutoff, granted)
		if len(ms) == 0 {
			return nil
		}
		if err := r.deliver(ctx, cutoff, ms, EventDelivered, s, emit); err != nil {
			return err
		}
		if len(ms) < granted {
			return nil
		}
	}
}

// Flush drains every buffered record into the sink regardless of lag,
// pacing or timestamp. A nil summary or emit is allowed.
func (r *Replayer) Flush(ctx context.Context, s *Summary, emit func(Event)) error {
	if s == nil {
		s = &Summary{}
	}
	if emit == nil {
		emit = func(Event) {}
	}
	for {
		ms := r.ring.Drain(r.opts.BatchSize)
		if len(ms) == 0 {
			return nil
		}
		if err := r.deliver(ctx, math.MaxUint64, ms, EventFlushed, s, emit); err != nil {
			return err
		}
	}
}

func (r *Replayer) deliver(ctx context.Context, cutoff uint64, ms []measurement.Measurement, kind EventKind, s *Summary, emit func(Event)) error {
	b := storage.NewBatch(cutoff, ms, r.clock.Now())
	if err := r.sink.Deliver(ctx, b); err != nil {
		return fmt.Errorf("delivering batch %s: %w", b.ID, err)
	}
	s.Extracted += len(ms)
	s.Batches++
	emit(Event{Kind: kind, Batch: &b, NowMS: clock.Millis(r.clock)})
	return nil
}
