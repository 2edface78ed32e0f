package engine

import (
	"errors"
	"runtime"
	"sync"
)

// Compile-time interface satisfaction checks.
var (
	_ Engine  = (*PoolEngine)(nil)
	_ Context = (*poolContext)(nil)
)

// PoolEngine is the default Engine. Every context it creates owns a
// persistent pool of goroutines fed by an unbuffered task channel, so a
// context's workers survive across dispatches rather than being respawned
// per call.
type PoolEngine struct {
	defaultConcurrency int
}

// NewPoolEngine creates a PoolEngine whose default concurrency is the
// process's GOMAXPROCS at construction time.
func NewPoolEngine() *PoolEngine {
	return &PoolEngine{defaultConcurrency: runtime.GOMAXPROCS(0)}
}

// DefaultConcurrency reports the concurrency used when no override applies.
func (e *PoolEngine) DefaultConcurrency() int {
	return e.defaultConcurrency
}

// CreateContext starts a pool of concurrency worker goroutines and returns
// the context that owns them.
func (e *PoolEngine) CreateContext(concurrency int) (Context, error) {
	if concurrency < 1 {
		return nil, ErrInvalidConcurrency
	}

	c := &poolContext{
		concurrency: concurrency,
		tasks:       make(chan func()),
	}
	for i := 0; i < concurrency; i++ {
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			c.runWorker()
		}()
	}
	return c, nil
}

// poolContext executes partitions on a fixed set of worker goroutines.
type poolContext struct {
	concurrency int
	tasks       chan func()

	workers sync.WaitGroup

	// mu orders task submission against Close: submissions hold the read
	// side so the channel is never closed while a send is in flight.
	mu     sync.RWMutex
	closed bool
}

func (c *poolContext) runWorker() {
	for task := range c.tasks {
		task()
	}
}

// Concurrency reports the pool size.
func (c *poolContext) Concurrency() int {
	return c.concurrency
}

// RunPartitioned splits r into at most Concurrency contiguous partitions and
// runs each on the pool, blocking until all complete. Per-partition errors
// are aggregated with errors.Join. An empty range runs nothing and returns
// nil.
//
// Dispatching into the same context from within work deadlocks when every
// worker is already occupied; nested dispatches must target a different
// context.
func (c *poolContext) RunPartitioned(r Range, work PartitionFunc) error {
	parts := splitRange(r, c.concurrency)
	if len(parts) == 0 {
		return nil
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrContextClosed
	}

	errs := make([]error, len(parts))
	var pending sync.WaitGroup
	for i, sub := range parts {
		i, sub := i, sub
		pending.Add(1)
		c.tasks <- func() {
			defer pending.Done()
			errs[i] = work(sub)
		}
	}
	c.mu.RUnlock()

	pending.Wait()
	return errors.Join(errs...)
}

// Close stops the pool and waits for in-flight partitions to finish.
func (c *poolContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.tasks)
	c.mu.Unlock()

	c.workers.Wait()
	return nil
}

// splitRange divides r into at most maxParts contiguous sub-ranges of
// near-equal size. Fewer parts are produced when the range is shorter than
// maxParts; an empty range produces none.
func splitRange(r Range, maxParts int) []Range {
	n := r.Len()
	if n == 0 || maxParts < 1 {
		return nil
	}

	parts := maxParts
	if n < parts {
		parts = n
	}

	out := make([]Range, 0, parts)
	chunk := (n + parts - 1) / parts
	for lo := r.Start; lo < r.End; lo += chunk {
		hi := lo + chunk
		if hi > r.End {
			hi = r.End
		}
		out = append(out, Range{Start: lo, End: hi})
	}
	return out
}
