package orchestrator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/openclaw/openclaw/internal/capability"
)

func TestSanitizeTruncatesLargeText(t *testing.T) {
	g := &Guard{MaxPayloadBytes: 10}
	res := g.Sanitize(capability.Result{Name: "web_search", Payload: strings.Repeat("x", 50)})
	s := res.Payload.(string)
	if !strings.HasPrefix(s, strings.Repeat("x", 10)+"\n") || !strings.Contains(s, "[truncated") {
		t.Errorf("payload = %q", s)
	}
}

func TestSanitizeKeepsRunesWhole(t *testing.T) {
	g := &Guard{MaxPayloadBytes: 3}
	res := g.Sanitize(capability.Result{Payload: "abé🚀 deploy"})
	s := res.Payload.(string)
	if !utf8.ValidString(s) {
		t.Fatalf("payload is not valid UTF-8: %q", s)
	}
	if !strings.HasPrefix(s, "ab\n[truncated") {
		t.Errorf("payload = %q", s)
	}

	g.MaxPayloadBytes = 5
	s = g.Sanitize(capability.Result{Payload: "abé🚀 deploy"}).Payload.(string)
	if !utf8.ValidString(s) || !strings.HasPrefix(s, "abé\n[truncated") {
		t.Errorf("payload = %q", s)
	}
}

func TestSanitizeLeavesOtherPayloads(t *testing.T) {
	g := &Guard{MaxPayloadBytes: 1}
	m := map[string]any{"commits": 12}
	res := g.Sanitize(capability.Result{Payload: m})
	if got, ok := res.Payload.(map[string]any); !ok || got["commits"] != 12 {
		t.Errorf("payload = %#v", res.Payload)
	}
	if res := g.Sanitize(capability.Result{Payload: "a"}); res.Payload != "a" {
		t.Errorf("short payload = %#v", res.Payload)
	}
}

func TestSanitizeZeroMaxDisablesTruncation(t *testing.T) {
	g := &Guard{}
	long := strings.Repeat("y", 1000)
	if res := g.Sanitize(capability.Result{Payload: long}); res.Payload != long {
		t.Error("zero max should not truncate")
	}
}

func TestGuardDefaultValues(t *testing.T) {
	if NewGuard().MaxPayloadBytes != DefaultMaxPayloadBytes {
		t.Error("unexpected default")
	}
}
