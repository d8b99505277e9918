package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "openclaw"

// Metrics holds the agent's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	exchanges       *prometheus.CounterVec
	capabilityCalls *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	posts           *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_exchanges_total",
			Help:      "Assistant exchanges by backend and outcome.",
		}, []string{"backend", "outcome"}),
		capabilityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_calls_total",
			Help:      "Capability dispatches by name and outcome.",
		}, []string{"capability", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Exchanges redirected to the fallback backend.",
		}, []string{"reason"}),
		posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_total",
			Help:      "Social posts by platform and outcome.",
		}, []string{"platform", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_seconds",
			Help:      "Latency of LLM backend requests.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"backend"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.exchanges,
		m.capabilityCalls,
		m.fallbacks,
		m.posts,
		m.backendLatency,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Exchange(backend, outcome string) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(backend, outcome).Inc()
}

func (m *Metrics) CapabilityCall(name, outcome string) {
	if m == nil {
		return
	}
	m.capabilityCalls.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) Post(platform, outcome string) {
	if m == nil {
		return
	}
	m.posts.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) BackendLatency(backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(backend).Observe(d.Seconds())
}
