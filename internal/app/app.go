// Package app assembles the agent from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openclaw/openclaw/internal/capability"
	"github.com/openclaw/openclaw/internal/channel"
	"github.com/openclaw/openclaw/internal/config"
	"github.com/openclaw/openclaw/internal/cycle"
	"github.com/openclaw/openclaw/internal/failover"
	"github.com/openclaw/openclaw/internal/logging"
	"github.com/openclaw/openclaw/internal/metrics"
	"github.com/openclaw/openclaw/internal/monitor"
	"github.com/openclaw/openclaw/internal/orchestrator"
	"github.com/openclaw/openclaw/internal/provider"
	"github.com/openclaw/openclaw/internal/scheduler"
	"github.com/openclaw/openclaw/internal/search"
	"github.com/openclaw/openclaw/internal/server"
	"github.com/openclaw/openclaw/internal/social"
	"github.com/openclaw/openclaw/internal/state"
	"github.com/openclaw/openclaw/internal/state/store"
)

// App is the wired agent.
type App struct {
	cfg *config.Config

	Metrics      *metrics.Metrics
	Capabilities *capability.Registry
	Router       *failover.Router
	Cycle        *cycle.Runner
	Scheduler    *scheduler.Scheduler
	Flags        state.Flags
	Commands     *channel.Commands

	telegram *channel.Telegram
	chat     *channel.WebSocket
	db       *store.DB
	closers  []func() error
}

// Options adjusts assembly, mainly for tests.
type Options struct {
	// HTTPClient is used for every outbound API call when set.
	HTTPClient *http.Client
	// SkipStore leaves cycle history unrecorded instead of opening a database.
	SkipStore bool
}

// New builds the agent. Call Close when done.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{cfg: cfg, Metrics: metrics.New()}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}

	github := monitor.NewGitHub(cfg.Monitors.GitHub.Username, cfg.Monitors.GitHub.Token,
		monitor.WithHTTPClient(hc), monitor.WithBaseURL(cfg.Monitors.GitHub.BaseURL))
	vercel := monitor.NewVercel(cfg.Monitors.Vercel.Token,
		monitor.WithHTTPClient(hc), monitor.WithBaseURL(cfg.Monitors.Vercel.BaseURL))
	render := monitor.NewRender(cfg.Monitors.Render.APIKey,
		monitor.WithHTTPClient(hc), monitor.WithBaseURL(cfg.Monitors.Render.BaseURL))
	serper := search.NewSerper(cfg.Search.SerperAPIKey,
		search.WithHTTPClient(hc), search.WithBaseURL(cfg.Search.BaseURL))

	timeout, err := cfg.Assistant.Timeout()
	if err != nil {
		return nil, err
	}
	a.Capabilities = capability.NewRegistry(capability.WithTimeout(timeout), capability.WithMetrics(a.Metrics))
	if err := capability.RegisterBuiltins(a.Capabilities, capability.Sources{
		GitHub: github, Vercel: vercel, Render: render, Search: serper,
	}); err != nil {
		return nil, err
	}

	a.Scheduler = scheduler.New(scheduler.WithLocation(cfg.Scheduler.Location()), scheduler.WithDataDir(cfg.State.DataDir))
	if err := scheduler.RegisterCapabilities(a.Capabilities, a.Scheduler); err != nil {
		return nil, err
	}

	primary, err := backend(cfg.Assistant.Primary, hc)
	if err != nil {
		return nil, err
	}
	fallback, err := backend(cfg.Assistant.Fallback, hc)
	if err != nil {
		return nil, err
	}
	orch := orchestrator.New(a.Capabilities, cfg.Assistant.SystemInstruction,
		orchestrator.WithMaxParallel(cfg.Assistant.MaxParallelCalls),
		orchestrator.WithMetrics(a.Metrics))
	a.Router = failover.NewRouter(orch, primary, fallback,
		failover.WithFallbackOn(cfg.Assistant.FallbackOn),
		failover.WithMetrics(a.Metrics))

	if err := a.openState(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}

	cycleOpts := []cycle.Option{
		cycle.WithLinkedIn(social.NewLinkedIn(cfg.Social.LinkedIn.AccessToken, cfg.Social.LinkedIn.PersonURN,
			social.WithHTTPClient(hc), social.WithBaseURL(cfg.Social.LinkedIn.BaseURL))),
		cycle.WithTwitter(social.NewTwitter(social.TwitterCredentials{
			APIKey:       cfg.Social.Twitter.APIKey,
			APISecret:    cfg.Social.Twitter.APISecret,
			AccessToken:  cfg.Social.Twitter.AccessToken,
			AccessSecret: cfg.Social.Twitter.AccessSecret,
		}, social.WithHTTPClient(hc), social.WithBaseURL(cfg.Social.Twitter.BaseURL))),
		cycle.WithMetrics(a.Metrics),
	}
	if a.db != nil {
		cycleOpts = append(cycleOpts, cycle.WithRunStore(store.NewRuns(a.db)))
	}
	if cfg.Telegram.BotToken != "" {
		a.telegram = channel.NewTelegram(cfg.Telegram.BotToken, channel.WithTelegramBaseURL(cfg.Telegram.BaseURL))
		if cfg.Telegram.ChatID != "" {
			cycleOpts = append(cycleOpts, cycle.WithNotifier(channel.NewConversation(a.telegram, cfg.Telegram.ChatID)))
		}
	}
	a.Cycle = cycle.NewRunner(cycle.Sources{GitHub: github, Vercel: vercel, Render: render}, cycleOpts...)

	var cmdOpts []channel.CommandsOption
	if cfg.Telegram.ChatID != "" {
		cmdOpts = append(cmdOpts, channel.WithOwner(cfg.Telegram.ChatID))
	}
	a.Commands = channel.NewCommands(a.Router, a.Cycle, a.Flags, cmdOpts...)
	a.chat = channel.NewWebSocket()
	return a, nil
}

func backend(b config.BackendConfig, hc *http.Client) (provider.Provider, error) {
	return provider.FromConfig(provider.ProviderConfig{
		ID:         b.Name,
		API:        b.API,
		BaseURL:    b.BaseURL,
		APIKey:     b.APIKey,
		Model:      b.Model,
		HTTPClient: hc,
	})
}

func (a *App) openState(ctx context.Context, opts Options) error {
	if a.cfg.State.RedisURL != "" {
		flags, err := state.DialRedisFlags(ctx, a.cfg.State.RedisURL)
		if err != nil {
			return err
		}
		a.Flags = flags
		a.closers = append(a.closers, flags.Close)
	} else {
		a.Flags = state.NewMemoryFlags()
	}

	if opts.SkipStore {
		return nil
	}
	var err error
	switch a.cfg.State.Driver {
	case config.DriverPostgres:
		a.db, err = store.OpenPostgres(a.cfg.State.DSN)
	default:
		a.db, err = store.Open(a.cfg.State.DataDir)
	}
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.db.Close)
	return nil
}

// Serve runs the HTTP server, chat channels and scheduler until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	log := logging.For("app")

	reg := channel.NewRegistry(channel.NewMessageHandler(a.Commands))
	defer reg.StopAll()
	if err := reg.Register(a.chat); err != nil {
		return err
	}
	if a.telegram != nil {
		if err := reg.Register(a.telegram); err != nil {
			return err
		}
		log.Info("telegram bot polling")
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN is not set, telegram disabled")
	}

	if err := a.scheduleJobs(); err != nil {
		return err
	}
	a.Scheduler.Start()
	defer a.Scheduler.Stop()

	srv := server.New(a.cfg.Server.Addr,
		server.WithMetrics(a.Metrics.Handler()),
		server.WithChat(a.chat))
	return srv.Serve(ctx)
}

func (a *App) scheduleJobs() error {
	sc := a.cfg.Scheduler
	if !off(sc.Cycle) {
		if err := a.Scheduler.AddJob(scheduler.DailyCycleJob, sc.Cycle, scheduler.CycleTask(a.Cycle, a.Flags)); err != nil {
			return err
		}
	}
	if !off(sc.KeepAlive) {
		task := scheduler.KeepAliveTask(&http.Client{Timeout: 30 * time.Second}, sc.SelfURL)
		if err := a.Scheduler.AddJob(scheduler.KeepAliveJob, sc.KeepAlive, task); err != nil {
			return err
		}
	}
	return nil
}

func off(spec string) bool { return strings.EqualFold(spec, "off") }

// Close releases state connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("closing app: %w", errors.Join(errs...))
	}
	return nil
}
