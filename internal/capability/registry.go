package capability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openclaw/openclaw/internal/actor"
	"github.com/openclaw/openclaw/internal/logging"
	"github.com/openclaw/openclaw/internal/metrics"
)

// Executor runs a capability. Zero-argument capabilities ignore args.
type Executor func(ctx context.Context, args Args) (any, error)

type Registry struct {
	mu        sync.RWMutex
	caps      map[string]Capability
	executors map[string]Executor
	order     []string

	timeout time.Duration
	metrics *metrics.Metrics
}

type Option func(*Registry)

// WithTimeout bounds each execution. Zero means no limit beyond the executor's own.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		caps:      make(map[string]Capability),
		executors: make(map[string]Executor),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) Register(c Capability, exec Executor) error {
	if c.Name == "" {
		return fmt.Errorf("capability name is required")
	}
	if exec == nil {
		return fmt.Errorf("capability %q has no executor", c.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.caps[c.Name]; exists {
		return fmt.Errorf("capability %q already registered", c.Name)
	}
	c.Params = append([]Param(nil), c.Params...)
	r.caps[c.Name] = c
	r.executors[c.Name] = exec
	r.order = append(r.order, c.Name)
	return nil
}

func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[name]
	return c, ok
}

// Manifest lists every capability in registration order.
func (r *Registry) Manifest() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		caps = append(caps, r.caps[name])
	}
	return caps
}

// Dispatch runs the named capability and returns its payload. It never fails:
// unknown names, executor errors, nil results and panics all become error payloads.
func (r *Registry) Dispatch(ctx context.Context, name string, args Args) any {
	r.mu.RLock()
	exec, ok := r.executors[name]
	r.mu.RUnlock()

	log := logging.For("capability").WithField("capability", name)
	if who := actor.Field(ctx); who != "" {
		log = log.WithField("actor", who)
	}
	if !ok {
		log.Warn("unknown capability requested")
		r.metrics.CapabilityCall(name, "unknown")
		return ErrorPayload("Unknown function: " + name)
	}

	start := time.Now()
	result, err := r.execute(ctx, name, exec, args)
	if err == nil && isNil(result) {
		err = fmt.Errorf("%s returned no data", name)
	}
	if err != nil {
		log.WithError(err).Warn("capability failed")
		r.metrics.CapabilityCall(name, "error")
		return ErrorPayload(err.Error())
	}
	log.WithField("duration", time.Since(start)).Debug("capability done")
	r.metrics.CapabilityCall(name, "ok")
	return result
}
