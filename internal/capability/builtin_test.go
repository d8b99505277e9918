package capability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openclaw/openclaw/internal/monitor"
)

type fakeGitHub struct {
	act *monitor.Activity
	err error
}

func (f fakeGitHub) Activity(context.Context) (*monitor.Activity, error) { return f.act, f.err }

type fakeVercel struct{}

func (fakeVercel) Deployments(context.Context) (*monitor.DeploymentReport, error) {
	return &monitor.DeploymentReport{Deployments: []monitor.Deployment{{Project: "site", Status: "READY"}}}, nil
}

type fakeRender struct{}

func (fakeRender) Deploys(context.Context) (*monitor.DeployReport, error) { return nil, nil }

type fakeSearch struct{ got string }

func (f *fakeSearch) Search(_ context.Context, q string) (string, error) {
	f.got = q
	return "- [Go](https://go.dev): The Go language", nil
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	s := &fakeSearch{}
	err := RegisterBuiltins(r, Sources{
		GitHub: fakeGitHub{act: &monitor.Activity{Commits: 3, RepoNames: []string{"me/api"}}},
		Vercel: fakeVercel{},
		Render: fakeRender{},
		Search: s,
	})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, c := range r.Manifest() {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "github_activity,vercel_deployments,render_deploys,web_search" {
		t.Errorf("manifest = %s", got)
	}

	ctx := context.Background()
	if a, ok := r.Dispatch(ctx, GitHubActivity, nil).(*monitor.Activity); !ok || a.Commits != 3 {
		t.Errorf("github payload = %#v", a)
	}
	if d, ok := r.Dispatch(ctx, VercelDeployments, nil).(*monitor.DeploymentReport); !ok || len(d.Deployments) != 1 {
		t.Errorf("vercel payload = %#v", d)
	}
	if _, ok := ErrorMessage(r.Dispatch(ctx, RenderDeploys, nil)); !ok {
		t.Error("nil render report should become an error payload")
	}
	if got := r.Dispatch(ctx, WebSearch, Args{"query": " golang "}); got != "- [Go](https://go.dev): The Go language" {
		t.Errorf("search payload = %#v", got)
	}
	if s.got != "golang" {
		t.Errorf("search query = %q", s.got)
	}

	ws, _ := r.Get(WebSearch)
	if len(ws.Params) != 1 || !ws.Params[0].Required {
		t.Errorf("web_search params = %+v", ws.Params)
	}
}

func TestBuiltinErrors(t *testing.T) {
	r := NewRegistry()
	_ = RegisterBuiltins(r, Sources{
		GitHub: fakeGitHub{err: errors.New("github: username not configured")},
		Search: &fakeSearch{},
	})

	ctx := context.Background()
	if msg, ok := ErrorMessage(r.Dispatch(ctx, GitHubActivity, nil)); !ok || !strings.Contains(msg, "not configured") {
		t.Errorf("github error = %q", msg)
	}
	if msg, ok := ErrorMessage(r.Dispatch(ctx, WebSearch, Args{})); !ok || msg != "query is required" {
		t.Errorf("search error = %q", msg)
	}
	if _, ok := r.Get(VercelDeployments); ok {
		t.Error("vercel should not be registered without a source")
	}
}
