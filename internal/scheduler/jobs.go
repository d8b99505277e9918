package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openclaw/openclaw/internal/logging"
	"github.com/openclaw/openclaw/internal/state"
	"github.com/openclaw/openclaw/internal/state/store"
	"github.com/openclaw/openclaw/internal/version"
)

// Built-in job names.
const (
	DailyCycleJob = "daily_cycle"
	KeepAliveJob  = "keepalive"
)

// PlaceholderHost marks an unedited deploy template URL.
const PlaceholderHost = "your-app.onrender.com"

// CycleRunner is the monitoring cycle, normally *cycle.Runner.
type CycleRunner interface {
	Run(ctx context.Context) (*store.Run, error)
}

// CycleTask runs the monitoring cycle unless auto-posting is paused.
func CycleTask(runner CycleRunner, flags state.Flags) Task {
	return func(ctx context.Context) error {
		log := logging.For("scheduler").WithField("job", DailyCycleJob)
		paused, err := flags.Paused(ctx)
		if err != nil {
			return fmt.Errorf("reading paused flag: %w", err)
		}
		if paused {
			log.Info("auto-posting paused, skipping cycle")
			return nil
		}
		_, err = runner.Run(ctx)
		return err
	}
}

// KeepAliveTask pings selfURL/ping so the hosting platform does not idle the
// service. Nothing is sent when selfURL is empty or still the placeholder.
func KeepAliveTask(client *http.Client, selfURL string) Task {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		log := logging.For("scheduler").WithField("job", KeepAliveJob)
		switch {
		case selfURL == "":
			return nil
		case strings.Contains(selfURL, PlaceholderHost):
			log.Warn("self-ping skipped: set RENDER_URL to your deployed app URL")
			return nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(selfURL, "/")+"/ping", nil)
		if err != nil {
			return fmt.Errorf("self-ping: %w", err)
		}
		req.Header.Set("User-Agent", version.UserAgent())
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("self-ping: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("self-ping: status %d", resp.StatusCode)
		}
		log.Debug("self-ping ok")
		return nil
	}
}
