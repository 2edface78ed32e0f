package engine

import "errors"

// ErrContextClosed is returned when work is submitted to a closed context.
var ErrContextClosed = errors.New("execution context is closed")

// ErrInvalidConcurrency is returned when a context is requested with a
// non-positive concurrency.
var ErrInvalidConcurrency = errors.New("concurrency must be positive")

// Range is a half-open interval [Start, End) of work item indexes.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indexes in the range.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// PartitionFunc processes one contiguous partition of a dispatched range.
// It is invoked at most once per partition and may run concurrently with
// other partitions of the same dispatch.
type PartitionFunc func(sub Range) error

// Engine creates sized execution contexts. Each implementation decides how
// contexts map onto OS resources; the default PoolEngine uses one goroutine
// pool per context.
type Engine interface {
	// DefaultConcurrency reports the concurrency used for contexts whose
	// name carries no configured override.
	DefaultConcurrency() int

	// CreateContext builds a new execution context sized to the given
	// concurrency. Returns ErrInvalidConcurrency if concurrency < 1.
	CreateContext(concurrency int) (Context, error)
}

// Context is a sized execution context that work ranges are dispatched into.
// A context is safe for concurrent use by multiple dispatches.
type Context interface {
	// Concurrency reports the size the context was created with.
	Concurrency() int

	// RunPartitioned splits r into at most Concurrency contiguous
	// partitions, runs work once per partition across the context's
	// workers, and blocks until every partition has finished. Errors from
	// individual partitions are aggregated with errors.Join.
	RunPartitioned(r Range, work PartitionFunc) error

	// Close stops the context's workers and waits for them to exit.
	// Closing an already-closed context is a no-op.
	Close() error
}
