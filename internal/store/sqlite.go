package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/seantiz/anvil"

	_ "modernc.org/sqlite"
)

const createDispatchesTable = `
CREATE TABLE IF NOT EXISTS dispatches (
    id          TEXT PRIMARY KEY,
    arena       TEXT NOT NULL,
    label       TEXT NOT NULL,
    task_id     INTEGER NOT NULL,
    items       INTEGER NOT NULL,
    concurrency INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    error       TEXT,
    started_at  DATETIME NOT NULL,
    created_at  DATETIME NOT NULL
)`

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS dispatch_records (
    dispatch_id TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    slot        INTEGER NOT NULL,
    arena       TEXT NOT NULL,
    task_id     INTEGER NOT NULL,
    PRIMARY KEY (dispatch_id, seq)
)`

// Compile-time interface satisfaction checks.
var (
	_ Store      = (*SQLiteStore)(nil)
	_ anvil.Sink = (*SQLiteStore)(nil)
)

// SQLiteStore implements Store using SQLite. It also implements anvil.Sink,
// so it can be handed to a Manager directly as the dispatch-report sink.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, migration := range []string{createDispatchesTable, createRecordsTable} {
		if _, err := db.Exec(migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migration: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordDispatch persists one completed dispatch and its records. It adapts
// the anvil.Sink contract onto SaveDispatch, minting a fresh row id.
func (s *SQLiteStore) RecordDispatch(ctx context.Context, rep anvil.DispatchReport, records []anvil.Record) error {
	d := &Dispatch{
		ID:          NewID(),
		Arena:       rep.Arena,
		Label:       rep.Label,
		TaskID:      rep.TaskID,
		Items:       rep.Items,
		Concurrency: rep.Concurrency,
		DurationMS:  rep.Duration.Milliseconds(),
		Error:       rep.Error,
		StartedAt:   rep.StartedAt,
		CreatedAt:   time.Now().UTC(),
	}
	return s.SaveDispatch(ctx, d, records)
}

// SaveDispatch inserts a dispatch report and its records in one transaction.
// Task ids are stored as their signed 64-bit bit pattern, since SQLite has
// no unsigned integer type.
func (s *SQLiteStore) SaveDispatch(ctx context.Context, d *Dispatch, records []anvil.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dispatches (
			id, arena, label, task_id, items, concurrency,
			duration_ms, error, started_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Arena, d.Label, int64(d.TaskID), d.Items, d.Concurrency,
		d.DurationMS, d.Error, d.StartedAt, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dispatch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dispatch_records (dispatch_id, seq, slot, arena, task_id)
		VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for seq, rec := range records {
		if _, err := stmt.ExecContext(ctx, d.ID, seq, rec.Slot, rec.Arena, int64(rec.TaskID)); err != nil {
			return fmt.Errorf("insert record %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dispatch: %w", err)
	}
	return nil
}

// GetDispatch retrieves a dispatch report by ID.
func (s *SQLiteStore) GetDispatch(ctx context.Context, id string) (*Dispatch, error) {
	d := &Dispatch{}
	var taskID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, arena, label, task_id, items, concurrency,
			duration_ms, error, started_at, created_at
		FROM dispatches WHERE id = ?`, id,
	).Scan(
		&d.ID, &d.Arena, &d.Label, &taskID, &d.Items, &d.Concurrency,
		&d.DurationMS, &d.Error, &d.StartedAt, &d.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dispatch: %w", err)
	}
	d.TaskID = uint64(taskID)
	return d, nil
}

// ListDispatches returns a paginated list of dispatch reports ordered by
// created_at DESC, along with the total count.
func (s *SQLiteStore) ListDispatches(ctx context.Context, limit, offset int) ([]*Dispatch, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM dispatches").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count dispatches: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, arena, label, task_id, items, concurrency,
			duration_ms, error, started_at, created_at
		FROM dispatches ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list dispatches: %w", err)
	}
	defer rows.Close()

	var dispatches []*Dispatch
	for rows.Next() {
		d := &Dispatch{}
		var taskID int64
		if err := rows.Scan(
			&d.ID, &d.Arena, &d.Label, &taskID, &d.Items, &d.Concurrency,
			&d.DurationMS, &d.Error, &d.StartedAt, &d.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan dispatch: %w", err)
		}
		d.TaskID = uint64(taskID)
		dispatches = append(dispatches, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate dispatches: %w", err)
	}

	return dispatches, total, nil
}

// GetRecords returns the execution records for a dispatch in merge order.
func (s *SQLiteStore) GetRecords(ctx context.Context, dispatchID string) ([]anvil.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, arena, task_id FROM dispatch_records
		WHERE dispatch_id = ? ORDER BY seq`, dispatchID,
	)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	defer rows.Close()

	var records []anvil.Record
	for rows.Next() {
		var rec anvil.Record
		var taskID int64
		if err := rows.Scan(&rec.Slot, &rec.Arena, &taskID); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.TaskID = uint64(taskID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// GetDispatchStats computes aggregate statistics across all dispatches.
func (s *SQLiteStore) GetDispatchStats(ctx context.Context) (*DispatchStats, error) {
	stats := &DispatchStats{CountByArena: make(map[string]int)}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(items), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM dispatches`,
	).Scan(&stats.Total, &stats.Failed, &stats.TotalItems, &stats.AvgDurationMS)
	if err != nil {
		return nil, fmt.Errorf("aggregate dispatches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT arena, COUNT(*) FROM dispatches GROUP BY arena",
	)
	if err != nil {
		return nil, fmt.Errorf("count by arena: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var arena string
		var count int
		if err := rows.Scan(&arena, &count); err != nil {
			return nil, fmt.Errorf("scan arena count: %w", err)
		}
		stats.CountByArena[arena] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate arena counts: %w", err)
	}

	return stats, nil
}
