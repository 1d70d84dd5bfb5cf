package replay

import (
	internalreplay "github.com/SmitUplenchwar2687/tsmr/internal/replay"
	"github.com/SmitUplenchwar2687/tsmr/pkg/clock"
	"github.com/SmitUplenchwar2687/tsmr/pkg/limiter"
	"github.com/SmitUplenchwar2687/tsmr/pkg/ring"
	"github.com/SmitUplenchwar2687/tsmr/pkg/storage"
)

// Filter defines criteria for selecting entries during replay.
type Filter = internalreplay.Filter

// Options tune a replay run.
type Options = internalreplay.Options

// Replayer streams recorded detections into a ring while a paced consumer
// drains it into a sink.
type Replayer = internalreplay.Replayer

// Event is reported for each entry outcome and each delivered batch.
type Event = internalreplay.Event

// EventKind says what happened to a replayed entry.
type EventKind = internalreplay.EventKind

const (
	EventInserted  = internalreplay.EventInserted
	EventOverwrote = internalreplay.EventOverwrote
	EventRejected  = internalreplay.EventRejected
	EventCorrected = internalreplay.EventCorrected
	EventUnmatched = internalreplay.EventUnmatched
	EventDelivered = internalreplay.EventDelivered
	EventFlushed   = internalreplay.EventFlushed
)

// Summary aggregates replay statistics.
type Summary = internalreplay.Summary

// New creates a new replayer. A nil pacer never throttles the consumer and
// a nil sink discards batches.
func New(g *ring.Guarded, vc *clock.VirtualClock, pacer limiter.Pacer, sink storage.Sink, opts Options) *Replayer {
	return internalreplay.New(g, vc, pacer, sink, opts)
}
