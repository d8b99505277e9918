package failover

import (
	"context"
	"errors"
	"fmt"

	"github.com/openclaw/openclaw/internal/config"
	"github.com/openclaw/openclaw/internal/logging"
	"github.com/openclaw/openclaw/internal/metrics"
	"github.com/openclaw/openclaw/internal/orchestrator"
	"github.com/openclaw/openclaw/internal/provider"
)

// Runner is the exchange the router wraps, normally *orchestrator.Orchestrator.
type Runner interface {
	Run(ctx context.Context, p provider.Provider, userMessage string) (*orchestrator.RunResult, error)
}

// Router sends each message to the primary backend and redirects it to the
// fallback when the primary is unconfigured or rate limited.
type Router struct {
	runner     Runner
	primary    provider.Provider
	fallback   provider.Provider
	fallbackOn string
	metrics    *metrics.Metrics
}

type Option func(*Router)

// WithFallbackOn sets when a primary error falls back: config.FallbackOnRateLimit or config.FallbackOnAny.
func WithFallbackOn(mode string) Option {
	return func(r *Router) {
		if mode != "" {
			r.fallbackOn = mode
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

func NewRouter(runner Runner, primary, fallback provider.Provider, opts ...Option) *Router {
	r := &Router{
		runner:     runner,
		primary:    primary,
		fallback:   fallback,
		fallbackOn: config.FallbackOnRateLimit,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Handle answers a chat message. Every outcome, including failures, is a reply string.
func (r *Router) Handle(ctx context.Context, userMessage string) (reply string) {
	defer func() {
		if p := recover(); p != nil {
			logging.For("failover").Errorf("panic while answering: %v", p)
			reply = fmt.Sprintf("My brain hurts. Something went wrong: %v", p)
		}
	}()

	text, err := r.Ask(ctx, userMessage)
	if err != nil {
		return r.Message(err)
	}
	return text
}

// Ask is Handle with the failure kept as a typed error: ErrOffline,
// *BackendError or *DualFailureError.
func (r *Router) Ask(ctx context.Context, userMessage string) (string, error) {
	log := logging.For("failover")
	primaryOK := configured(r.primary)
	fallbackOK := configured(r.fallback)

	if !primaryOK && !fallbackOK {
		log.Warn("no backend configured")
		return "", ErrOffline
	}

	if !primaryOK {
		log.Infof("%s not configured, using %s", r.name(r.primary), r.fallback.ID())
		r.metrics.Fallback("unconfigured")
		return r.runFallback(ctx, userMessage, fmt.Errorf("%s: %w", r.name(r.primary), provider.ErrNotConfigured))
	}

	text, err := r.run(ctx, r.primary, userMessage)
	if err == nil {
		return text, nil
	}

	var reason string
	switch {
	case IsRateLimited(err):
		reason = "rate_limit"
	case r.fallbackOn == config.FallbackOnAny:
		reason = "error"
	default:
		log.WithError(err).Errorf("%s failed", r.primary.ID())
		return "", &BackendError{Backend: r.primary.ID(), Err: err}
	}

	log.WithError(err).Warnf("%s unavailable (%s), switching to %s", r.primary.ID(), reason, r.name(r.fallback))
	r.metrics.Fallback(reason)
	if !fallbackOK {
		return "", &DualFailureError{
			Primary:     r.primary.ID(),
			PrimaryErr:  err,
			Fallback:    r.name(r.fallback),
			FallbackErr: provider.ErrNotConfigured,
		}
	}
	return r.runFallback(ctx, userMessage, err)
}

func (r *Router) runFallback(ctx context.Context, userMessage string, primaryErr error) (string, error) {
	text, err := r.run(ctx, r.fallback, userMessage)
	if err != nil {
		logging.For("failover").WithError(err).Errorf("%s failed", r.fallback.ID())
		return "", &DualFailureError{
			Primary:     r.name(r.primary),
			PrimaryErr:  primaryErr,
			Fallback:    r.fallback.ID(),
			FallbackErr: err,
		}
	}
	return fmt.Sprintf("[via %s]\n%s", r.fallback.ID(), text), nil
}

func (r *Router) run(ctx context.Context, p provider.Provider, userMessage string) (string, error) {
	res, err := r.runner.Run(ctx, p, userMessage)
	if err != nil {
		r.metrics.Exchange(p.ID(), "error")
		return "", err
	}
	r.metrics.Exchange(p.ID(), "ok")
	return res.Response, nil
}

// Message turns a router error into the reply shown to the user.
func (r *Router) Message(err error) string {
	var dual *DualFailureError
	var backend *BackendError
	switch {
	case errors.Is(err, ErrOffline):
		return fmt.Sprintf("I am currently offline (no API key for %s or %s). Please configure my brain.",
			r.name(r.primary), r.name(r.fallback))
	case errors.As(err, &dual):
		if errors.Is(dual.FallbackErr, provider.ErrNotConfigured) {
			return fmt.Sprintf("⚠️ Both %s and %s are unavailable. Please check your API keys. (%s: %v)",
				dual.Primary, dual.Fallback, dual.Primary, dual.PrimaryErr)
		}
		return fmt.Sprintf("⚠️ Both %s and %s failed. %s: %v | %s: %v",
			dual.Primary, dual.Fallback, dual.Primary, dual.PrimaryErr, dual.Fallback, dual.FallbackErr)
	case errors.As(err, &backend):
		return fmt.Sprintf("My brain hurts. Something went wrong: %v", backend.Err)
	default:
		return fmt.Sprintf("My brain hurts. Something went wrong: %v", err)
	}
}

func (r *Router) name(p provider.Provider) string {
	if p == nil {
		return "fallback"
	}
	return p.ID()
}

func configured(p provider.Provider) bool {
	return p != nil && p.Configured()
}
