package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoRuns is returned by Last before the first cycle has been recorded.
var ErrNoRuns = errors.New("no monitoring cycle recorded yet")

// Run is one monitoring cycle.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	// Outcomes maps platform name to "posted", "failed" or "skipped".
	Outcomes map[string]string
	Error    string
}

// Runs records monitoring-cycle history.
type Runs struct {
	db *DB
}

func NewRuns(db *DB) *Runs {
	return &Runs{db: db}
}

// Record inserts or replaces a run by id.
func (r *Runs) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("record run: id is required")
	}
	outcomes, err := json.Marshal(run.Outcomes)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if run.Outcomes == nil {
		outcomes = []byte("{}")
	}
	_, err = r.db.exec(ctx,
		`INSERT INTO runs (id, started_at, finished_at, outcomes, error) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET finished_at = excluded.finished_at, outcomes = excluded.outcomes, error = excluded.error`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), string(outcomes), run.Error)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Last returns the most recently started run.
func (r *Runs) Last(ctx context.Context) (*Run, error) {
	var run Run
	var startedAt, finishedAt, outcomes string
	err := r.db.queryRow(ctx,
		`SELECT id, started_at, finished_at, outcomes, error FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&run.ID, &startedAt, &finishedAt, &outcomes, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("last run %s: started_at: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return nil, fmt.Errorf("last run %s: finished_at: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(outcomes), &run.Outcomes); err != nil {
		return nil, fmt.Errorf("last run %s: outcomes: %w", run.ID, err)
	}
	return &run, nil
}

// Timestamps are stored as fixed-width UTC text so they sort lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
