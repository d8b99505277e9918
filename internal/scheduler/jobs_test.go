package scheduler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openclaw/openclaw/internal/state"
	"github.com/openclaw/openclaw/internal/state/store"
)

type countingCycle struct {
	calls atomic.Int32
	err   error
}

func (c *countingCycle) Run(context.Context) (*store.Run, error) {
	c.calls.Add(1)
	return &store.Run{ID: "r"}, c.err
}

func TestCycleTaskSkipsWhilePaused(t *testing.T) {
	ctx := context.Background()
	flags := state.NewMemoryFlags()
	runner := &countingCycle{}
	task := CycleTask(runner, flags)

	if err := task(ctx); err != nil {
		t.Fatal(err)
	}
	if runner.calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", runner.calls.Load())
	}

	_ = flags.SetPaused(ctx, true)
	if err := task(ctx); err != nil {
		t.Fatal(err)
	}
	if runner.calls.Load() != 1 {
		t.Errorf("cycle ran while paused, calls = %d", runner.calls.Load())
	}
}

func TestCycleTaskReturnsRunError(t *testing.T) {
	boom := errors.New("boom")
	task := CycleTask(&countingCycle{err: boom}, state.NewMemoryFlags())
	if err := task(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestKeepAlivePingsSelf(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("path = %s", r.URL.Path)
		}
		hits.Add(1)
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	if err := KeepAliveTask(srv.Client(), srv.URL+"/")(context.Background()); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d", hits.Load())
	}
}

func TestKeepAliveSkipsPlaceholderAndEmpty(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	for _, u := range []string{"", "https://your-app.onrender.com"} {
		if err := KeepAliveTask(srv.Client(), u)(context.Background()); err != nil {
			t.Errorf("%q: %v", u, err)
		}
	}
	if hits.Load() != 0 {
		t.Errorf("hits = %d, want 0", hits.Load())
	}
}

func TestKeepAliveReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := KeepAliveTask(srv.Client(), srv.URL)(context.Background()); err == nil {
		t.Fatal("expected error for 503")
	}
}
