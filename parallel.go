package anvil

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/seantiz/anvil/engine"
)

// ParallelFor runs worker once for every index in [start, end) on the arena
// named name, creating the arena on first use. Partitioning and invocation
// order across partitions are engine-determined and may be concurrent; the
// framework adds no synchronization between items, so any sharing inside
// worker is the caller's to guard.
//
// One execution record per successfully completed item is accumulated in a
// partition-local buffer and merged into the manager's tracker with a single
// lock acquisition per partition, under a label unique to this call. If
// worker fails, its error is wrapped with the failing index, aggregated with
// errors from other partitions, and returned; records collected before the
// failure are still flushed. An empty range invokes worker zero times but
// still creates the arena.
func (m *Manager) ParallelFor(name string, start, end int, worker func(i int) error) error {
	return m.dispatch(name, engine.Range{Start: start, End: end}, worker)
}

// ForEach runs worker once per element of items on the arena named name. It
// is the slice-shaped counterpart of ParallelFor with identical guarantees;
// it is a top-level function because Go methods cannot take type parameters.
func ForEach[T any](m *Manager, name string, items []T, worker func(item T) error) error {
	return m.dispatch(name, engine.Range{Start: 0, End: len(items)}, func(i int) error {
		return worker(items[i])
	})
}

// dispatch is the single entry point behind ParallelFor and ForEach.
func (m *Manager) dispatch(name string, r engine.Range, worker func(i int) error) error {
	taskID := m.ids.next()
	label := dispatchLabel(name, taskID)

	ectx, err := m.GetOrCreate(name)
	if err != nil {
		return err
	}

	start := time.Now()
	activeDispatches.Inc()
	defer activeDispatches.Dec()

	err = ectx.RunPartitioned(r, func(sub engine.Range) error {
		local := make([]Record, 0, sub.Len())
		var failed error
		for i := sub.Start; i < sub.End; i++ {
			if werr := worker(i); werr != nil {
				failed = fmt.Errorf("item %d: %w", i, werr)
				break
			}
			local = append(local, Record{Slot: i, Arena: name, TaskID: taskID})
		}
		// Records gathered before a failure are kept.
		m.tracker.RecordBatch(label, local)
		return failed
	})

	duration := time.Since(start)
	status := statusCompleted
	if err != nil {
		status = statusFailed
		m.logger.Error("dispatch failed", "arena", name, "label", label, "error", err)
	}
	dispatchesTotal.WithLabelValues(name, status).Inc()
	dispatchItemsTotal.WithLabelValues(name).Add(float64(r.Len()))
	dispatchDuration.WithLabelValues(name).Observe(duration.Seconds())

	m.report(name, label, taskID, r, ectx, start, duration, err)

	return err
}

// report forwards the dispatch summary to the sink, if one is configured.
// Sink failures are logged, never propagated to the dispatch caller.
func (m *Manager) report(name, label string, taskID uint64, r engine.Range, ectx engine.Context, start time.Time, duration time.Duration, dispatchErr error) {
	if m.sink == nil {
		return
	}

	rep := DispatchReport{
		Arena:       name,
		Label:       label,
		TaskID:      taskID,
		Items:       r.Len(),
		Concurrency: ectx.Concurrency(),
		Duration:    duration,
		StartedAt:   start.UTC(),
	}
	if dispatchErr != nil {
		rep.Error = dispatchErr.Error()
	}

	if err := m.sink.RecordDispatch(context.Background(), rep, m.tracker.Snapshot(label)); err != nil {
		m.logger.Error("record dispatch", "label", label, "error", err)
	}
}

// dispatchLabel joins an arena name and a task-instance id into the label
// that keys one dispatch's records.
func dispatchLabel(name string, taskID uint64) string {
	return name + "_" + strconv.FormatUint(taskID, 10)
}
