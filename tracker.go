package anvil

import (
	"sort"
	"sync"
)

// Record captures the execution of one work item: which slot (item index)
// ran, under which arena, and for which task instance.
type Record struct {
	Slot   int    `json:"slot"`
	Arena  string `json:"arena"`
	TaskID uint64 `json:"task_id"`
}

// Tracker accumulates execution records per dispatch label. Workers buffer
// records locally during their partition and merge them with a single
// RecordBatch call, so the tracker's lock is taken once per partition rather
// than once per item.
type Tracker struct {
	mu      sync.Mutex
	records map[string][]Record
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{records: make(map[string][]Record)}
}

// RecordBatch appends batch to the sequence for label under one lock
// acquisition. The batch is stored contiguously; batches for other labels
// never interleave within it. An empty batch takes no lock and records
// nothing.
func (t *Tracker) RecordBatch(label string, batch []Record) {
	if len(batch) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[label] = append(t.records[label], batch...)
}

// Snapshot returns a copy of the records accumulated for label, in merge
// order. The copy is safe to retain.
func (t *Tracker) Snapshot(label string) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	recs := t.records[label]
	if len(recs) == 0 {
		return nil
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// Count returns the number of records accumulated for label.
func (t *Tracker) Count(label string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records[label])
}

// Labels returns every label with at least one record, sorted for stable
// output.
func (t *Tracker) Labels() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	labels := make([]string, 0, len(t.records))
	for label := range t.records {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Reset discards all accumulated records.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = make(map[string][]Record)
}
