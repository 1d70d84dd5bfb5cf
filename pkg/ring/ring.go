// Package ring exposes the fixed-capacity measurement ring for embedding.
package ring

import (
	internalmeasurement "github.com/SmitUplenchwar2687/tsmr/internal/measurement"
	internalring "github.com/SmitUplenchwar2687/tsmr/internal/ring"
)

// Measurement is one time-stamped detection observation.
type Measurement = internalmeasurement.Measurement

// NoID marks a detection without a track identity.
const NoID = internalmeasurement.NoID

// MaxCapacity bounds the capacity a single ring may request.
const MaxCapacity = internalring.MaxCapacity

// Ring is a fixed-capacity buffer that overwrites its oldest record when full.
// It is not safe for concurrent use; wrap it with NewGuarded.
type Ring = internalring.Ring

// Guarded serializes access to a Ring.
type Guarded = internalring.Guarded

// Stats is a point-in-time view of a ring.
type Stats = internalring.Stats

// Option configures a Ring.
type Option = internalring.Option

// OrderPolicy decides what Insert does with an out-of-order timestamp.
type OrderPolicy = internalring.OrderPolicy

const (
	AcceptOutOfOrder = internalring.AcceptOutOfOrder
	RejectOutOfOrder = internalring.RejectOutOfOrder
)

var (
	ErrZeroCapacity     = internalring.ErrZeroCapacity
	ErrCapacityTooLarge = internalring.ErrCapacityTooLarge
	ErrNotFound         = internalring.ErrNotFound
	ErrClosed           = internalring.ErrClosed
	ErrOutOfOrder       = internalring.ErrOutOfOrder
)

// New creates a ring holding at most capacity measurements.
func New(capacity int, opts ...Option) (*Ring, error) {
	return internalring.New(capacity, opts...)
}

// NewGuarded wraps r for concurrent use.
func NewGuarded(r *Ring) *Guarded {
	return internalring.NewGuarded(r)
}

// WithOrderPolicy selects the out-of-order policy.
func WithOrderPolicy(p OrderPolicy) Option {
	return internalring.WithOrderPolicy(p)
}

// ParseOrderPolicy accepts "accept" or "reject".
func ParseOrderPolicy(s string) (OrderPolicy, error) {
	return internalring.ParseOrderPolicy(s)
}
