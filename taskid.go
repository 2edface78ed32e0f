package anvil

import (
	"sync/atomic"
	"time"
)

// taskIDGenerator produces process-unique 64-bit task-instance ids by
// packing a truncated clock sample into the high 32 bits and an atomic
// counter into the low 32 bits. Ids are unique within a process run with
// overwhelming probability; they are not unique across restarts and are not
// cryptographic.
type taskIDGenerator struct {
	counter atomic.Uint32
}

// next returns the next task-instance id. Never blocks, never fails.
func (g *taskIDGenerator) next() uint64 {
	ts := uint64(uint32(time.Now().UnixNano()))
	n := uint64(g.counter.Add(1) - 1)
	return ts<<32 | n
}
