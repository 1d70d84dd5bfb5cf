/*
Package ring implements the measurement replay ring: a fixed-capacity,
time-ordered buffer of detection measurements for controllers that ingest
records faster than a downstream consumer drains them.

The ring owns one backing slice allocated at construction. A write cursor
and a length describe the logical window; the oldest record sits at
(cursor - length + capacity) mod capacity and the window runs forward
length slots, wrapping at capacity. Inserting into a full ring overwrites
the oldest record; that data loss is the contract, not an error.

Besides insertion the ring supports three operations:

  - Find: exact-timestamp lookup (linear scan, oldest first).
  - Correct: in-place replacement of the record matching both timestamp
    and track id.
  - ExtractOlderThan / ExtractInto: drain records older than a cutoff from
    the oldest end, up to a maximum count.

# Ordering

Extraction stops at the first record whose timestamp is at or past the
cutoff. That is only complete when records were inserted in non-decreasing
timestamp order. With the default AcceptOutOfOrder policy an out-of-order
insert is stored as given, and a later extraction can stop early while
older records remain further back in the window. Build the ring with
WithOrderPolicy(RejectOutOfOrder) to refuse such inserts with ErrOutOfOrder
instead.

# Concurrency

Ring has no internal locking and is meant for one control loop. Wrap it in
a Guarded when several goroutines share it.

Example:

	r, err := ring.New(3)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, ts := range []uint64{10, 20, 30, 40} {
		r.Insert(measurement.Measurement{TimestampMS: ts})
	}
	// ts=10 was overwritten; the window is now 20, 30, 40.
	batch := r.ExtractOlderThan(35, 10) // 20, 30
*/
package ring
