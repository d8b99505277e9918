package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenAndMigrations(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var v int
	if err := db.SQLDB().QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		t.Fatalf("read schema_version: %v", err)
	}
	if v != 1 {
		t.Errorf("schema_version = %d, want 1", v)
	}

	// Re-open: idempotent, no error
	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open again: %v", err)
	}
	defer db2.Close()
	if err := db2.SQLDB().QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		t.Fatalf("read schema_version (second open): %v", err)
	}
	if v != 1 {
		t.Errorf("schema_version after re-open = %d, want 1", v)
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty data dir")
	}
	if _, err := OpenPostgres(""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestRebindDollar(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
	}
	for _, tt := range tests {
		if got := rebindDollar(tt.in); got != tt.want {
			t.Errorf("rebindDollar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	sqlite := &DB{dialect: dialectSQLite}
	if got := sqlite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestRunsRecordAndLast(t *testing.T) {
	runs := NewRuns(openTemp(t))
	ctx := context.Background()

	if _, err := runs.Last(ctx); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("Last on empty store: %v, want ErrNoRuns", err)
	}

	base := time.Date(2026, time.October, 15, 18, 0, 0, 0, time.UTC)
	first := Run{ID: "run-1", StartedAt: base, FinishedAt: base.Add(5 * time.Second),
		Outcomes: map[string]string{"LinkedIn": "posted", "Twitter": "failed"}}
	second := Run{ID: "run-2", StartedAt: base.Add(24 * time.Hour), FinishedAt: base.Add(24*time.Hour + time.Second),
		Error: "github: boom"}

	for _, r := range []Run{first, second} {
		if err := runs.Record(ctx, r); err != nil {
			t.Fatalf("Record %s: %v", r.ID, err)
		}
	}

	last, err := runs.Last(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last.ID != "run-2" || last.Error != "github: boom" {
		t.Errorf("last = %+v", last)
	}
	if !last.StartedAt.Equal(second.StartedAt) {
		t.Errorf("started_at = %s, want %s", last.StartedAt, second.StartedAt)
	}
	if len(last.Outcomes) != 0 {
		t.Errorf("outcomes = %v, want empty", last.Outcomes)
	}
}

func TestRunsRecordUpdatesExisting(t *testing.T) {
	runs := NewRuns(openTemp(t))
	ctx := context.Background()
	start := time.Date(2026, time.October, 16, 18, 0, 0, 0, time.UTC)

	if err := runs.Record(ctx, Run{ID: "r", StartedAt: start, FinishedAt: start}); err != nil {
		t.Fatal(err)
	}
	if err := runs.Record(ctx, Run{ID: "r", StartedAt: start, FinishedAt: start.Add(time.Minute),
		Outcomes: map[string]string{"LinkedIn": "posted"}}); err != nil {
		t.Fatal(err)
	}

	last, err := runs.Last(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last.Outcomes["LinkedIn"] != "posted" || !last.FinishedAt.Equal(start.Add(time.Minute)) {
		t.Errorf("last = %+v", last)
	}
}

func TestRunsRecordRequiresID(t *testing.T) {
	if err := NewRuns(openTemp(t)).Record(context.Background(), Run{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestRunsLastRejectsCorruptTimestamps(t *testing.T) {
	db := openTemp(t)
	_, err := db.SQLDB().Exec(`INSERT INTO runs (id, started_at, finished_at, outcomes, error) VALUES (?, ?, ?, ?, ?)`,
		"broken", "yesterday-ish", formatTime(time.Now()), "{}", "")
	if err != nil {
		t.Fatal(err)
	}
	run, err := NewRuns(db).Last(context.Background())
	if err == nil || run != nil {
		t.Fatalf("Last = %+v, %v; want error", run, err)
	}
	if !strings.Contains(err.Error(), "started_at") {
		t.Errorf("err = %v", err)
	}
}
