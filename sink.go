package anvil

import (
	"context"
	"time"
)

// DispatchReport summarizes one completed ParallelFor call.
type DispatchReport struct {
	Arena       string
	Label       string
	TaskID      uint64
	Items       int
	Concurrency int
	Duration    time.Duration
	Error       string
	StartedAt   time.Time
}

// Sink consumes dispatch reports after each dispatch finishes, off the hot
// path. Implementations must be safe for concurrent use; a slow sink delays
// the dispatching goroutine, not the workers.
type Sink interface {
	RecordDispatch(ctx context.Context, report DispatchReport, records []Record) error
}
