package ring

import (
	"errors"
	"fmt"

	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
)

// MaxCapacity bounds the backing store a single ring may request.
const MaxCapacity = 1 << 24

var (
	// ErrZeroCapacity is returned by New for a non-positive capacity.
	ErrZeroCapacity = errors.New("ring: capacity must be positive")
	// ErrCapacityTooLarge is returned by New when the backing store cannot be provided.
	ErrCapacityTooLarge = errors.New("ring: capacity too large")
	// ErrNotFound is returned when no stored measurement matches.
	ErrNotFound = errors.New("ring: measurement not found")
	// ErrClosed is returned when operating on a closed or nil ring.
	ErrClosed = errors.New("ring: closed")
	// ErrOutOfOrder is returned by Insert under RejectOutOfOrder.
	ErrOutOfOrder = errors.New("ring: timestamp older than newest measurement")
)

// OrderPolicy decides what Insert does with a timestamp older than the newest stored one.
type OrderPolicy int

const (
	// AcceptOutOfOrder stores the record as given. Extraction may then stop early.
	AcceptOutOfOrder OrderPolicy = iota
	// RejectOutOfOrder refuses the record with ErrOutOfOrder.
	RejectOutOfOrder
)

func (p OrderPolicy) String() string {
	switch p {
	case AcceptOutOfOrder:
		return "accept"
	case RejectOutOfOrder:
		return "reject"
	default:
		return fmt.Sprintf("OrderPolicy(%d)", int(p))
	}
}

// ParseOrderPolicy maps "accept" and "reject" to an OrderPolicy.
func ParseOrderPolicy(s string) (OrderPolicy, error) {
	switch s {
	case "", "accept":
		return AcceptOutOfOrder, nil
	case "reject":
		return RejectOutOfOrder, nil
	default:
		return 0, fmt.Errorf("unknown order policy %q, must be one of: accept, reject", s)
	}
}

type options struct {
	order OrderPolicy
}

// Option configures a Ring.
type Option func(*options)

// WithOrderPolicy sets how out-of-order inserts are handled.
// The default is AcceptOutOfOrder.
func WithOrderPolicy(p OrderPolicy) Option {
	return func(o *options) {
		o.order = p
	}
}

// Ring is a fixed-capacity circular store of measurements.
// It is not safe for concurrent use; see Guarded.
type Ring struct {
	buf    []measurement.Measurement
	cursor int // slot the next insert writes
	n      int // valid records
	order  OrderPolicy
}

// New allocates a ring holding exactly capacity measurements.
func New(capacity int, opts ...Option) (*Ring, error) {
	if capacity <= 0 {
		return nil, ErrZeroCapacity
	}
	if capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrCapacityTooLarge, capacity, MaxCapacity)
	}

	cfg := options{order: AcceptOutOfOrder}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Ring{
		buf:   make([]measurement.Measurement, capacity),
		order: cfg.order,
	}, nil
}

// Close releases the backing store. It is idempotent and safe on a nil ring.
// Measurements previously copied out are unaffected.
func (r *Ring) Close() {
	if r == nil {
		return
	}
	r.buf = nil
	r.cursor = 0
	r.n = 0
}

func (r *Ring) usable() bool {
	return r != nil && r.buf != nil
}

// start is the physical index of the logical oldest record.
func (r *Ring) start() int {
	c := len(r.buf)
	return (r.cursor - r.n + c) % c
}

// slot maps logical position i (0 = oldest) to a physical index.
func (r *Ring) slot(i int) int {
	return (r.start() + i) % len(r.buf)
}

// Push inserts m and reports the record it overwrote, if the ring was full.
func (r *Ring) Push(m measurement.Measurement) (evicted measurement.Measurement, overwrote bool, err error) {
	if !r.usable() {
		return measurement.Measurement{}, false, ErrClosed
	}
	if r.order == RejectOutOfOrder && r.n > 0 {
		if newest := r.buf[r.slot(r.n-1)]; m.TimestampMS < newest.TimestampMS {
			return measurement.Measurement{}, false, fmt.Errorf("%w: %d < %d", ErrOutOfOrder, m.TimestampMS, newest.TimestampMS)
		}
	}

	if r.n == len(r.buf) {
		// The cursor sits on the oldest slot when full.
		evicted, overwrote = r.buf[r.cursor], true
	}
	r.buf[r.cursor] = m
	r.cursor = (r.cursor + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
	return evicted, overwrote, nil
}

// Insert writes m at the cursor, overwriting the oldest record when full.
func (r *Ring) Insert(m measurement.Measurement) error {
	_, _, err := r.Push(m)
	return err
}

// Find returns the oldest stored measurement whose timestamp equals ts.
func (r *Ring) Find(ts uint64) (measurement.Measurement, bool) {
	if !r.usable() {
		return measurement.Measurement{}, false
	}
	for i := 0; i < r.n; i++ {
		if m := r.buf[r.slot(i)]; m.TimestampMS == ts {
			return m, true
		}
	}
	return measurement.Measurement{}, false
}

// Correct replaces, field for field, the first stored measurement whose
// timestamp and id both match corrected.
func (r *Ring) Correct(corrected measurement.Measurement) error {
	if !r.usable() {
		return ErrClosed
	}
	for i := 0; i < r.n; i++ {
		idx := r.slot(i)
		if r.buf[idx].SameKey(corrected) {
			r.buf[idx] = corrected
			return nil
		}
	}
	return ErrNotFound
}

// ExtractInto drains measurements older than cutoff into dst, oldest first,
// and returns how many were written. It stops at the first record with a
// timestamp at or past cutoff, or when dst is full.
func (r *Ring) ExtractInto(dst []measurement.Measurement, cutoff uint64) int {
	if !r.usable() || r.n == 0 || len(dst) == 0 {
		return 0
	}

	start := r.start()
	count := 0
	for count < r.n && count < len(dst) {
		m := r.buf[(start+count)%len(r.buf)]
		if m.TimestampMS >= cutoff {
			break
		}
		dst[count] = m
		count++
	}

	// Only the oldest boundary moves; the cursor stays put.
	r.n -= count
	return count
}

// ExtractOlderThan drains up to max measurements older than cutoff and
// returns them oldest first. It returns nil when nothing was extracted.
func (r *Ring) ExtractOlderThan(cutoff uint64, max int) []measurement.Measurement {
	if !r.usable() || r.n == 0 || max <= 0 {
		return nil
	}
	dst := make([]measurement.Measurement, min(max, r.n))
	n := r.ExtractInto(dst, cutoff)
	if n == 0 {
		return nil
	}
	return dst[:n]
}

// Drain removes up to max of the oldest measurements whatever their
// timestamps and returns them oldest first.
func (r *Ring) Drain(max int) []measurement.Measurement {
	if !r.usable() || r.n == 0 || max <= 0 {
		return nil
	}
	out := make([]measurement.Measurement, min(max, r.n))
	for i := range out {
		out[i] = r.buf[r.slot(i)]
	}
	r.n -= len(out)
	return out
}

// Len returns the number of stored measurements.
func (r *Ring) Len() int {
	if !r.usable() {
		return 0
	}
	return r.n
}

// Cap returns the fixed capacity, or 0 once closed.
func (r *Ring) Cap() int {
	if r == nil {
		return 0
	}
	return len(r.buf)
}

// Cursor returns the slot the next insert will write.
func (r *Ring) Cursor() int {
	if !r.usable() {
		return 0
	}
	return r.cursor
}

// Full reports whether the next insert will overwrite.
func (r *Ring) Full() bool {
	return r.usable() && r.n == len(r.buf)
}

// Oldest returns the logical oldest measurement.
func (r *Ring) Oldest() (measurement.Measurement, bool) {
	if !r.usable() || r.n == 0 {
		return measurement.Measurement{}, false
	}
	return r.buf[r.slot(0)], true
}

// Newest returns the most recently inserted measurement.
func (r *Ring) Newest() (measurement.Measurement, bool) {
	if !r.usable() || r.n == 0 {
		return measurement.Measurement{}, false
	}
	return r.buf[r.slot(r.n-1)], true
}

// Snapshot returns a copy of the stored measurements, oldest first.
func (r *Ring) Snapshot() []measurement.Measurement {
	if !r.usable() || r.n == 0 {
		return nil
	}
	out := make([]measurement.Measurement, r.n)
	for i := range out {
		out[i] = r.buf[r.slot(i)]
	}
	return out
}
