// Package monitor polls developer-tooling APIs for the last day of activity.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openclaw/openclaw/internal/version"
)

// Window is how far back every monitor looks.
const Window = 24 * time.Hour

// ErrNotConfigured is returned when a monitor's credential is missing.
var ErrNotConfigured = errors.New("not configured")

// APIError is a non-2xx response from a monitored API.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Service, e.StatusCode, e.Body)
}

type client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// Option configures a monitor.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) { cl.http = c }
}

// WithBaseURL points the monitor at a different API root.
func WithBaseURL(u string) Option {
	return func(cl *client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithClock replaces time.Now when computing the activity window.
func WithClock(now func() time.Time) Option {
	return func(cl *client) { cl.now = now }
}

func newClient(defaultBase string, opts []Option) client {
	cl := client{
		baseURL: defaultBase,
		http:    &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
	for _, o := range opts {
		o(&cl)
	}
	return cl
}

func (c client) since() time.Time {
	return c.now().Add(-Window)
}

func (c client) getJSON(ctx context.Context, service, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", service, err)
	}
	return nil
}
