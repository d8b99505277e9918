package version

import (
	"strings"
	"testing"
)

func TestGetReturnsDefaults(t *testing.T) {
	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected Version=dev, got %s", info.Version)
	}
	if info.Commit != "none" {
		t.Errorf("expected Commit=none, got %s", info.Commit)
	}
	if info.Date != "unknown" {
		t.Errorf("expected Date=unknown, got %s", info.Date)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{
			name: "defaults",
			info: Info{Version: "dev", Commit: "none", Date: "unknown"},
			want: "OpenClaw dev (commit: none, built: unknown)",
		},
		{
			name: "release",
			info: Info{Version: "v0.3.0", Commit: "9f1c2d7", Date: "2026-10-01T00:00:00Z"},
			want: "OpenClaw v0.3.0 (commit: 9f1c2d7, built: 2026-10-01T00:00:00Z)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.String()
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "openclaw-agent/") {
		t.Errorf("UserAgent() = %q", ua)
	}
	if !strings.HasSuffix(ua, Version) {
		t.Errorf("UserAgent() = %q, want version suffix %q", ua, Version)
	}
}
