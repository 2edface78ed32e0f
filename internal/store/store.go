package store

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/seantiz/anvil"
)

// ErrNotFound is returned when a dispatch is not found.
var ErrNotFound = errors.New("dispatch not found")

// Dispatch is one persisted dispatch report.
type Dispatch struct {
	ID          string    `json:"id"`
	Arena       string    `json:"arena"`
	Label       string    `json:"label"`
	TaskID      uint64    `json:"task_id"`
	Items       int       `json:"items"`
	Concurrency int       `json:"concurrency"`
	DurationMS  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// DispatchStats holds aggregate dispatch statistics.
type DispatchStats struct {
	Total         int            `json:"total"`
	Failed        int            `json:"failed"`
	CountByArena  map[string]int `json:"count_by_arena"`
	TotalItems    int64          `json:"total_items"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for dispatch reports and their
// execution records.
type Store interface {
	SaveDispatch(ctx context.Context, d *Dispatch, records []anvil.Record) error
	GetDispatch(ctx context.Context, id string) (*Dispatch, error)
	ListDispatches(ctx context.Context, limit, offset int) ([]*Dispatch, int, error)
	GetRecords(ctx context.Context, dispatchID string) ([]anvil.Record, error)
	GetDispatchStats(ctx context.Context) (*DispatchStats, error)
	Close() error
}

// NewID generates a new ULID string for use as a dispatch row identifier.
// Unlike task-instance ids, ULIDs stay unique across process restarts.
func NewID() string {
	return ulid.Make().String()
}
