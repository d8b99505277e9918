package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/openclaw/internal/capability"
	"github.com/openclaw/openclaw/internal/logging"
	"github.com/openclaw/openclaw/internal/metrics"
	"github.com/openclaw/openclaw/internal/provider"
)

const DefaultMaxParallel = 4

// Dispatcher is the capability side of an exchange.
type Dispatcher interface {
	Manifest() []capability.Capability
	Dispatch(ctx context.Context, name string, args capability.Args) any
}

// Orchestrator runs the two-round tool-calling exchange against one provider:
// the user message goes out with the manifest, any requested invocations are
// executed, and their results go back to the same provider for the final text.
// A further round of invocations in the second reply is not followed.
type Orchestrator struct {
	dispatcher  Dispatcher
	system      string
	maxParallel int
	guard       *Guard
	metrics     *metrics.Metrics
}

type Option func(*Orchestrator)

// WithMaxParallel limits concurrent capability executions within one round.
func WithMaxParallel(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

func WithGuard(g *Guard) Option {
	return func(o *Orchestrator) { o.guard = g }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func New(d Dispatcher, systemInstruction string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dispatcher:  d,
		system:      systemInstruction,
		maxParallel: DefaultMaxParallel,
		guard:       NewGuard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type RunResult struct {
	Response    string
	Invocations []capability.Invocation
	Results     []capability.Result
	// Unanswered counts invocations requested in the second reply.
	Unanswered int
}

// Run performs one exchange. Provider errors are returned unchanged so the
// caller can classify them; capability failures never are.
func (o *Orchestrator) Run(ctx context.Context, p provider.Provider, userMessage string) (*RunResult, error) {
	log := logging.For("orchestrator").WithField("backend", p.ID())
	start := time.Now()

	manifest := o.dispatcher.Manifest()
	var turns []provider.Turn
	if o.system != "" {
		turns = append(turns, provider.SystemTurn(o.system))
	}
	turns = append(turns, provider.UserTurn(userMessage))

	first, err := o.complete(ctx, p, turns, manifest)
	if err != nil {
		return nil, err
	}
	if len(first.Invocations) == 0 {
		log.WithField("duration", time.Since(start)).Debug("answered without capabilities")
		return &RunResult{Response: first.Text}, nil
	}

	results := o.execute(ctx, first.Invocations)

	turns = append(turns, first.Turn)
	for _, r := range results {
		turns = append(turns, provider.ToolTurn(r))
	}
	second, err := o.complete(ctx, p, turns, manifest)
	if err != nil {
		return nil, err
	}

	res := &RunResult{
		Response:    second.Text,
		Invocations: first.Invocations,
		Results:     results,
		Unanswered:  len(second.Invocations),
	}
	entry := log.WithFields(logrus.Fields{
		"invocations": len(first.Invocations),
		"duration":    time.Since(start),
	})
	if res.Unanswered > 0 {
		entry = entry.WithField("unanswered", res.Unanswered)
	}
	entry.Debug("exchange complete")
	return res, nil
}

func (o *Orchestrator) complete(ctx context.Context, p provider.Provider, turns []provider.Turn, manifest []capability.Capability) (*provider.CompletionResponse, error) {
	start := time.Now()
	resp, err := p.Complete(ctx, &provider.CompletionRequest{
		Turns: append([]provider.Turn(nil), turns...),
		Tools: manifest,
	})
	o.metrics.BackendLatency(p.ID(), time.Since(start))
	return resp, err
}

// execute runs every invocation and returns the results in invocation order.
func (o *Orchestrator) execute(ctx context.Context, invocations []capability.Invocation) []capability.Result {
	results := make([]capability.Result, len(invocations))

	var g errgroup.Group
	g.SetLimit(o.maxParallel)
	for i, inv := range invocations {
		g.Go(func() error {
			results[i] = o.invoke(ctx, inv)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) invoke(ctx context.Context, inv capability.Invocation) capability.Result {
	res := capability.Result{CallID: inv.ID, Name: inv.Name}
	if inv.ArgsError != "" {
		res.Payload = capability.ErrorPayload(inv.ArgsError)
		return res
	}
	res.Payload = o.dispatcher.Dispatch(ctx, inv.Name, inv.Args)
	if o.guard != nil {
		res = o.guard.Sanitize(res)
	}
	return res
}
