package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	m := New()
	m.Exchange("Gemini", "ok")
	m.Exchange("Gemini", "ok")
	m.CapabilityCall("web_search", "error")
	m.Fallback("rate_limit")
	m.Post("LinkedIn", "ok")

	if got := testutil.ToFloat64(m.exchanges.WithLabelValues("Gemini", "ok")); got != 2 {
		t.Errorf("exchanges = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.capabilityCalls.WithLabelValues("web_search", "error")); got != 1 {
		t.Errorf("capability calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fallbacks.WithLabelValues("rate_limit")); got != 1 {
		t.Errorf("fallbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.posts.WithLabelValues("LinkedIn", "ok")); got != 1 {
		t.Errorf("posts = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Exchange("Gemini", "ok")
	m.CapabilityCall("x", "ok")
	m.Fallback("any")
	m.Post("Twitter", "error")
	m.BackendLatency("Groq", time.Second)
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.BackendLatency("Groq", 300*time.Millisecond)
	m.Fallback("rate_limit")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`openclaw_fallbacks_total{reason="rate_limit"} 1`,
		`openclaw_backend_request_seconds_count{backend="Groq"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
