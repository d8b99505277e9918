// Package cycle runs the daily monitor, format and post loop.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/openclaw/internal/logging"
	"github.com/openclaw/openclaw/internal/metrics"
	"github.com/openclaw/openclaw/internal/monitor"
	"github.com/openclaw/openclaw/internal/report"
	"github.com/openclaw/openclaw/internal/social"
	"github.com/openclaw/openclaw/internal/state/store"
)

type GitHubSource interface {
	Activity(ctx context.Context) (*monitor.Activity, error)
}

type VercelSource interface {
	Deployments(ctx context.Context) (*monitor.DeploymentReport, error)
}

type RenderSource interface {
	Deploys(ctx context.Context) (*monitor.DeployReport, error)
}

// Sources are the monitors a cycle reads. Nil entries are left out of the report.
type Sources struct {
	GitHub GitHubSource
	Vercel VercelSource
	Render RenderSource
}

// Poster publishes one formatted post.
type Poster interface {
	Name() string
	Post(ctx context.Context, text string) error
}

// Notifier reaches the owner, normally over Telegram.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// RunStore keeps cycle history.
type RunStore interface {
	Record(ctx context.Context, run store.Run) error
	Last(ctx context.Context) (*store.Run, error)
}

// Post outcomes recorded per platform.
const (
	OutcomePosted  = "posted"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// ErrInProgress is returned by Run while another cycle is still running.
var ErrInProgress = errors.New("a monitoring cycle is already running")

type Runner struct {
	running  sync.Mutex
	sources  Sources
	linkedIn Poster
	twitter  Poster
	notifier Notifier
	runs     RunStore
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Runner)

func WithLinkedIn(p Poster) Option {
	return func(r *Runner) { r.linkedIn = p }
}

func WithTwitter(p Poster) Option {
	return func(r *Runner) { r.twitter = p }
}

// WithNotifier sets where post results and the cycle summary are sent.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

func WithRunStore(s RunStore) Option {
	return func(r *Runner) { r.runs = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(sources Sources, opts ...Option) *Runner {
	r := &Runner{sources: sources, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Collect fetches all monitors concurrently. A failing monitor leaves its
// section nil; only cancellation of ctx is returned as an error.
func (r *Runner) Collect(ctx context.Context) (report.Data, error) {
	var data report.Data
	g, gctx := errgroup.WithContext(ctx)

	if r.sources.GitHub != nil {
		g.Go(func() error {
			a, err := r.sources.GitHub.Activity(gctx)
			data.GitHub = keep(ctx, "github", a, err)
			return ctx.Err()
		})
	}
	if r.sources.Vercel != nil {
		g.Go(func() error {
			d, err := r.sources.Vercel.Deployments(gctx)
			data.Vercel = keep(ctx, "vercel", d, err)
			return ctx.Err()
		})
	}
	if r.sources.Render != nil {
		g.Go(func() error {
			d, err := r.sources.Render.Deploys(gctx)
			data.Render = keep(ctx, "render", d, err)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return report.Data{}, fmt.Errorf("collecting activity: %w", err)
	}
	return data, nil
}

func keep[T any](ctx context.Context, source string, v *T, err error) *T {
	if err == nil {
		return v
	}
	log := logging.For("cycle").WithField("source", source)
	switch {
	case errors.Is(err, monitor.ErrNotConfigured):
		log.Debug("monitor not configured")
	case ctx.Err() != nil:
	default:
		log.WithError(err).Warn("monitor failed")
	}
	return nil
}

// Preview formats today's posts without publishing them.
func (r *Runner) Preview(ctx context.Context) (linkedIn, twitter string, err error) {
	data, err := r.Collect(ctx)
	if err != nil {
		return "", "", err
	}
	return report.ForLinkedIn(data, r.now()), report.ForTwitter(data), nil
}

// Run collects, formats, posts and reports one cycle to the owner. The
// returned run has already been recorded when a store is configured.
// Cycles never overlap: a second caller gets ErrInProgress and nothing is
// recorded or sent for it.
func (r *Runner) Run(ctx context.Context) (*store.Run, error) {
	if !r.running.TryLock() {
		return nil, ErrInProgress
	}
	defer r.running.Unlock()

	run := &store.Run{ID: uuid.NewString(), StartedAt: r.now(), Outcomes: map[string]string{}}
	log := logging.For("cycle").WithField("run_id", run.ID)
	log.Info("monitoring cycle started")

	err := r.run(ctx, run, log)
	run.FinishedAt = r.now()
	if err != nil {
		run.Error = err.Error()
		log.WithError(err).Error("monitoring cycle failed")
		r.notify(ctx, fmt.Sprintf("Error in monitoring cycle: %v", err))
	}
	if r.runs != nil {
		if recErr := r.runs.Record(ctx, *run); recErr != nil {
			log.WithError(recErr).Warn("recording run")
		}
	}
	log.WithField("outcomes", run.Outcomes).Info("monitoring cycle finished")
	return run, err
}

func (r *Runner) run(ctx context.Context, run *store.Run, log *logrus.Entry) error {
	data, err := r.Collect(ctx)
	if err != nil {
		return err
	}
	linkedInText := report.ForLinkedIn(data, run.StartedAt)
	twitterText := report.ForTwitter(data)

	r.publish(ctx, run, log, r.linkedIn, "LinkedIn", linkedInText)
	r.publish(ctx, run, log, r.twitter, "Twitter", twitterText)

	r.notify(ctx, fmt.Sprintf("Monitoring cycle complete.\n\nLinkedIn:\n%s\n\nTwitter:\n%s", linkedInText, twitterText))
	return ctx.Err()
}

func (r *Runner) publish(ctx context.Context, run *store.Run, log *logrus.Entry, p Poster, platform, text string) {
	if p == nil {
		run.Outcomes[platform] = OutcomeSkipped
		return
	}
	platform = p.Name()
	outcome := OutcomePosted
	if err := p.Post(ctx, text); err != nil {
		outcome = OutcomeFailed
		if errors.Is(err, social.ErrNotConfigured) {
			outcome = OutcomeSkipped
		}
		log.WithError(err).WithField("platform", platform).Warn("post failed")
	}
	run.Outcomes[platform] = outcome
	r.metrics.Post(platform, outcome)

	if outcome == OutcomePosted {
		r.notify(ctx, fmt.Sprintf("✅ Posted to %s successfully!", platform))
	} else {
		r.notify(ctx, fmt.Sprintf("❌ Failed to post to %s.", platform))
	}
}

func (r *Runner) notify(ctx context.Context, text string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, text); err != nil {
		logging.For("cycle").WithError(err).Warn("notify owner")
	}
}

// LastRun returns the most recent recorded cycle, or nil when there is none
// or no store is configured.
func (r *Runner) LastRun(ctx context.Context) (*store.Run, error) {
	if r.runs == nil {
		return nil, nil
	}
	run, err := r.runs.Last(ctx)
	if errors.Is(err, store.ErrNoRuns) {
		return nil, nil
	}
	return run, err
}
