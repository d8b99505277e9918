// Package search runs web searches through the Serper API.
package search

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

const (
	serperDefaultBaseURL = "https://google.serper.dev"
	maxResults           = 5
	NoResults            = "No results found."
)

var ErrNotConfigured = errors.New("search: serper api key not configured")

type Serper struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type Option func(*Serper)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Serper) { s.client = c }
}

func WithBaseURL(u string) Option {
	return func(s *Serper) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func NewSerper(apiKey string, opts ...Option) *Serper {
	s := &Serper{
		baseURL: serperDefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns the top organic results as markdown list lines.
func (s *Serper) Search(ctx context.Context, query string) (string, error) {
	if s.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("serper api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var sr serperResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(sr.Organic) == 0 {
		return NoResults, nil
	}

	lines := make([]string, 0, maxResults)
	for i, r := range sr.Organic {
		if i == maxResults {
			break
		}
		lines = append(lines, fmt.Sprintf("- [%s](%s): %s", r.Title, r.Link, r.Snippet))
	}
	return strings.Join(lines, "\n"), nil
}
