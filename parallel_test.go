package anvil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// singleLabel returns the tracker's only label, failing the test otherwise.
func singleLabel(t *testing.T, m *Manager) string {
	t.Helper()
	labels := m.Tracker().Labels()
	if len(labels) != 1 {
		t.Fatalf("labels = %v, want exactly 1", labels)
	}
	return labels[0]
}

func TestParallelForInvokesEveryIndexOnce(t *testing.T) {
	m := newTestManager(t, WithOverrides("alpha:2"))

	const k = 1000
	var visits [k]atomic.Int32
	err := m.ParallelFor("alpha", 0, k, func(i int) error {
		visits[i].Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("ParallelFor: %v", err)
	}

	for i := range visits {
		if got := visits[i].Load(); got != 1 {
			t.Errorf("index %d invoked %d times, want 1", i, got)
		}
	}

	label := singleLabel(t, m)
	if got := m.Tracker().Count(label); got != k {
		t.Errorf("records under %s = %d, want %d", label, got, k)
	}

	ctx, err := m.GetOrCreate("alpha")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if got := ctx.Concurrency(); got != 2 {
		t.Errorf("alpha concurrency = %d, want 2 from override", got)
	}
}

func TestParallelForReusesArena(t *testing.T) {
	eng := &countingEngine{defaultConcurrency: 4}
	m := newTestManager(t, WithEngine(eng), WithOverrides(""))

	for n := 0; n < 3; n++ {
		if err := m.ParallelFor("reused", 0, 50, func(int) error { return nil }); err != nil {
			t.Fatalf("ParallelFor: %v", err)
		}
	}

	if got := eng.creates.Load(); got != 1 {
		t.Errorf("context creations = %d, want 1 across repeated dispatches", got)
	}

	first, err := m.GetOrCreate("reused")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	second, err := m.GetOrCreate("reused")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first != second {
		t.Error("handle identity changed across calls")
	}
}

func TestParallelForDisjointLabelsPerDispatch(t *testing.T) {
	m := newTestManager(t, WithOverrides("alpha:2"))

	if err := m.ParallelFor("alpha", 0, 1000, func(int) error { return nil }); err != nil {
		t.Fatalf("first ParallelFor: %v", err)
	}
	if err := m.ParallelFor("alpha", 0, 10, func(int) error { return nil }); err != nil {
		t.Fatalf("second ParallelFor: %v", err)
	}

	labels := m.Tracker().Labels()
	if len(labels) != 2 {
		t.Fatalf("labels = %v, want 2 disjoint labels", labels)
	}

	counts := map[int]bool{}
	for _, label := range labels {
		if !strings.HasPrefix(label, "alpha_") {
			t.Errorf("label %q does not carry the arena name", label)
		}
		counts[m.Tracker().Count(label)] = true
	}
	if !counts[1000] || !counts[10] {
		t.Errorf("label record counts = %v, want {1000, 10}", counts)
	}
}

func TestParallelForEmptyRange(t *testing.T) {
	m := newTestManager(t, WithOverrides(""))

	invocations := 0
	if err := m.ParallelFor("beta", 0, 0, func(int) error {
		invocations++
		return nil
	}); err != nil {
		t.Fatalf("ParallelFor: %v", err)
	}

	if invocations != 0 {
		t.Errorf("invocations = %d, want 0", invocations)
	}
	if labels := m.Tracker().Labels(); len(labels) != 0 {
		t.Errorf("labels = %v, want none for empty range", labels)
	}

	// Arena creation is not skipped for empty ranges.
	arenas := m.Arenas()
	if len(arenas) != 1 || arenas[0].Name != "beta" {
		t.Errorf("arenas = %v, want beta created", arenas)
	}
}

func TestParallelForPropagatesWorkerError(t *testing.T) {
	m := newTestManager(t, WithOverrides("failing:4"))

	errBad := errors.New("bad item")
	err := m.ParallelFor("failing", 0, 100, func(i int) error {
		if i%10 == 3 {
			return errBad
		}
		return nil
	})
	if !errors.Is(err, errBad) {
		t.Fatalf("ParallelFor err = %v, want errBad", err)
	}
	if !strings.Contains(err.Error(), "item ") {
		t.Errorf("error %q does not name the failing item", err)
	}
}

func TestParallelForFlushesRecordsBeforeFailure(t *testing.T) {
	// The serial mock runs the whole range as one partition, so the failure
	// point determines exactly how many records were gathered first.
	eng := &countingEngine{defaultConcurrency: 1}
	m := newTestManager(t, WithEngine(eng), WithOverrides(""))

	errStop := errors.New("stop")
	err := m.ParallelFor("partial", 0, 10, func(i int) error {
		if i == 5 {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("ParallelFor err = %v, want errStop", err)
	}

	label := singleLabel(t, m)
	if got := m.Tracker().Count(label); got != 5 {
		t.Errorf("records flushed before failure = %d, want 5", got)
	}
}

func TestForEachVisitsEveryItem(t *testing.T) {
	m := newTestManager(t, WithOverrides("sum:3"))

	items := make([]int, 200)
	for i := range items {
		items[i] = i + 1
	}

	var total atomic.Int64
	err := ForEach(m, "sum", items, func(item int) error {
		total.Add(int64(item))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}

	want := int64(len(items)) * int64(len(items)+1) / 2
	if got := total.Load(); got != want {
		t.Errorf("sum = %d, want %d", got, want)
	}

	label := singleLabel(t, m)
	if got := m.Tracker().Count(label); got != len(items) {
		t.Errorf("records = %d, want %d", got, len(items))
	}
}

func TestConcurrentDispatchesSameArena(t *testing.T) {
	m := newTestManager(t, WithOverrides("shared:2"))

	const dispatches = 8
	var wg sync.WaitGroup
	for d := 0; d < dispatches; d++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.ParallelFor("shared", 0, 100, func(int) error { return nil }); err != nil {
				t.Errorf("ParallelFor: %v", err)
			}
		}()
	}
	wg.Wait()

	labels := m.Tracker().Labels()
	if len(labels) != dispatches {
		t.Fatalf("labels = %d, want %d distinct labels", len(labels), dispatches)
	}
	for _, label := range labels {
		if got := m.Tracker().Count(label); got != 100 {
			t.Errorf("Count(%s) = %d, want 100", label, got)
		}
	}
}

// captureSink records the reports it receives.
type captureSink struct {
	mu      sync.Mutex
	reports []DispatchReport
	records map[string][]Record
}

func (s *captureSink) RecordDispatch(_ context.Context, rep DispatchReport, recs []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, rep)
	if s.records == nil {
		s.records = make(map[string][]Record)
	}
	s.records[rep.Label] = recs
	return nil
}

func TestDispatchReportsReachSink(t *testing.T) {
	sink := &captureSink{}
	m := newTestManager(t, WithOverrides("observed:2"), WithSink(sink))

	if err := m.ParallelFor("observed", 0, 40, func(int) error { return nil }); err != nil {
		t.Fatalf("ParallelFor: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(sink.reports))
	}

	rep := sink.reports[0]
	if rep.Arena != "observed" {
		t.Errorf("report arena = %q, want observed", rep.Arena)
	}
	if rep.Items != 40 {
		t.Errorf("report items = %d, want 40", rep.Items)
	}
	if rep.Concurrency != 2 {
		t.Errorf("report concurrency = %d, want 2", rep.Concurrency)
	}
	if rep.Error != "" {
		t.Errorf("report error = %q, want empty", rep.Error)
	}
	if len(sink.records[rep.Label]) != 40 {
		t.Errorf("sink records = %d, want 40", len(sink.records[rep.Label]))
	}
}

func TestDispatchLabelFormat(t *testing.T) {
	if got, want := dispatchLabel("alpha", 42), "alpha_42"; got != want {
		t.Errorf("dispatchLabel = %q, want %q", got, want)
	}
}

func TestDefaultEngineConcurrency(t *testing.T) {
	m := newTestManager(t, WithOverrides(""))

	ctx, err := m.GetOrCreate("default")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if ctx.Concurrency() < 1 {
		t.Errorf("default concurrency = %d, want >= 1", ctx.Concurrency())
	}
}
