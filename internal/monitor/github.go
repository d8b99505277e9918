package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openclaw/openclaw/internal/logging"
)

const githubDefaultBaseURL = "https://api.github.com"

// Activity summarises a user's public GitHub events.
type Activity struct {
	Commits   int      `json:"commits"`
	PRs       int      `json:"prs"`
	Releases  int      `json:"releases"`
	Stars     int      `json:"stars"`
	Issues    int      `json:"issues"`
	RepoNames []string `json:"repoNames"`
}

type GitHub struct {
	client
	username string
	token    string
}

func NewGitHub(username, token string, opts ...Option) *GitHub {
	return &GitHub{
		client:   newClient(githubDefaultBaseURL, opts),
		username: username,
		token:    token,
	}
}

type ghEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload json.RawMessage `json:"payload"`
}

type ghPayload struct {
	Action  string            `json:"action"`
	Size    *int              `json:"size"`
	Commits []json.RawMessage `json:"commits"`
}

// Activity counts the user's events from the last day. The token is optional.
func (g *GitHub) Activity(ctx context.Context) (*Activity, error) {
	if g.username == "" {
		return nil, fmt.Errorf("github: username %w", ErrNotConfigured)
	}

	u := fmt.Sprintf("%s/users/%s/events?per_page=100", g.baseURL, url.PathEscape(g.username))
	h := http.Header{}
	h.Set("Accept", "application/vnd.github.v3+json")
	if g.token != "" {
		h.Set("Authorization", "token "+g.token)
	}

	var events []ghEvent
	if err := g.getJSON(ctx, "github", u, h, &events); err != nil {
		return nil, fmt.Errorf("fetch github events: %w", err)
	}

	since := g.since()
	act := &Activity{RepoNames: []string{}}
	seen := make(map[string]bool)
	for _, ev := range events {
		if !ev.CreatedAt.After(since) {
			continue
		}
		if !seen[ev.Repo.Name] {
			seen[ev.Repo.Name] = true
			act.RepoNames = append(act.RepoNames, ev.Repo.Name)
		}

		var p ghPayload
		if len(ev.Payload) > 0 {
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				logging.For("monitor").WithError(err).Debugf("github: skipping payload of %s", ev.Type)
				continue
			}
		}
		switch ev.Type {
		case "PushEvent":
			switch {
			case p.Commits != nil:
				act.Commits += len(p.Commits)
			case p.Size != nil:
				act.Commits += *p.Size
			}
		case "PullRequestEvent":
			if p.Action == "opened" {
				act.PRs++
			}
		case "ReleaseEvent":
			if p.Action == "published" {
				act.Releases++
			}
		case "WatchEvent":
			if p.Action == "started" {
				act.Stars++
			}
		case "IssuesEvent":
			if p.Action == "opened" {
				act.Issues++
			}
		}
	}
	return act, nil
}
