package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openclaw/openclaw/internal/monitor"
)

const (
	GitHubActivity    = "github_activity"
	VercelDeployments = "vercel_deployments"
	RenderDeploys     = "render_deploys"
	WebSearch         = "web_search"
)

type GitHubSource interface {
	Activity(ctx context.Context) (*monitor.Activity, error)
}

type VercelSource interface {
	Deployments(ctx context.Context) (*monitor.DeploymentReport, error)
}

type RenderSource interface {
	Deploys(ctx context.Context) (*monitor.DeployReport, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Sources backs the built-in capabilities. Nil sources are skipped.
type Sources struct {
	GitHub GitHubSource
	Vercel VercelSource
	Render RenderSource
	Search Searcher
}

var errEmptyQuery = errors.New("query is required")

// RegisterBuiltins registers the monitoring and search capabilities.
func RegisterBuiltins(r *Registry, src Sources) error {
	type entry struct {
		cap  Capability
		exec Executor
	}
	var entries []entry

	if src.GitHub != nil {
		entries = append(entries, entry{
			cap: Capability{
				Name:        GitHubActivity,
				Description: "Fetches the user's recent GitHub events (commits, PRs, releases, stars, issues) from the last 24 hours.",
			},
			exec: func(ctx context.Context, _ Args) (any, error) {
				a, err := src.GitHub.Activity(ctx)
				if err != nil || a == nil {
					return nil, err
				}
				return a, nil
			},
		})
	}
	if src.Vercel != nil {
		entries = append(entries, entry{
			cap: Capability{
				Name:        VercelDeployments,
				Description: "Fetches the user's recent Vercel deployments (READY, ERROR, BUILDING) from the last 24 hours.",
			},
			exec: func(ctx context.Context, _ Args) (any, error) {
				d, err := src.Vercel.Deployments(ctx)
				if err != nil || d == nil {
					return nil, err
				}
				return d, nil
			},
		})
	}
	if src.Render != nil {
		entries = append(entries, entry{
			cap: Capability{
				Name:        RenderDeploys,
				Description: "Fetches the user's recent Render service deploys from the last 24 hours.",
			},
			exec: func(ctx context.Context, _ Args) (any, error) {
				d, err := src.Render.Deploys(ctx)
				if err != nil || d == nil {
					return nil, err
				}
				return d, nil
			},
		})
	}
	if src.Search != nil {
		entries = append(entries, entry{
			cap: Capability{
				Name:        WebSearch,
				Description: "Searches the web for a given query. Use this to find information, prices, documentation, or news.",
				Params: []Param{
					{Name: "query", Type: "string", Description: "The search query.", Required: true},
				},
			},
			exec: func(ctx context.Context, args Args) (any, error) {
				q := strings.TrimSpace(args.String("query"))
				if q == "" {
					return nil, errEmptyQuery
				}
				return src.Search.Search(ctx, q)
			},
		})
	}

	for _, e := range entries {
		if err := r.Register(e.cap, e.exec); err != nil {
			return fmt.Errorf("register builtin: %w", err)
		}
	}
	return nil
}
