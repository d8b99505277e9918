// Package social publishes the daily log to LinkedIn and X/Twitter.
package social

import (
	"bytes"
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

// ErrNotConfigured is returned by Post when the poster's credentials are missing.
var ErrNotConfigured = errors.New("not configured")

// APIError is a non-2xx response from a social API.
type APIError struct {
	Platform   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Platform, e.StatusCode, e.Body)
}

type options struct {
	baseURL string
	http    *http.Client
}

// Option configures a poster.
type Option func(*options)

// WithHTTPClient sets the transport used for API calls. For Twitter it is
// the base client underneath the OAuth signer.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.http = c }
}

// WithBaseURL points the poster at a different API root.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func newOptions(defaultBase string, opts []Option) options {
	o := options{baseURL: defaultBase, http: &http.Client{Timeout: 30 * time.Second}}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// postJSON sends body and decodes a 2xx response into out when out is non-nil.
func postJSON(ctx context.Context, hc *http.Client, platform, url string, header http.Header, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", platform, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Platform: platform, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding %s response: %w", platform, err)
	}
	return nil
}
