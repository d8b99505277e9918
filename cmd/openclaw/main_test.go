package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "OpenClaw dev") {
		t.Errorf("output = %q", out)
	}
}

func TestAskWithoutKeysPrintsOfflineReply(t *testing.T) {
	for _, k := range []string{"GOOGLE_API_KEY", "GROQ_API_KEY", "REDIS_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	out, err := run(t, "ask", "what", "is", "up")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "I am currently offline") {
		t.Errorf("output = %q", out)
	}
}

func TestAskRequiresMessage(t *testing.T) {
	if _, err := run(t, "ask"); err == nil {
		t.Fatal("expected error without a message")
	}
}

func TestBadConfigPath(t *testing.T) {
	if _, err := run(t, "--config", "/nonexistent/openclaw.yaml", "preview"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
