package report

import (
	"strings"
	"testing"
	"time"

	"github.com/openclaw/openclaw/internal/monitor"
)

var day = time.Date(2026, time.October, 16, 18, 0, 0, 0, time.UTC)

func busyDay() Data {
	return Data{
		GitHub: &monitor.Activity{Commits: 7, RepoNames: []string{"octo/api", "octo/web"}},
		Vercel: &monitor.DeploymentReport{Deployments: []monitor.Deployment{
			{Project: "web", Status: "READY"},
			{Project: "docs", Status: "ERROR"},
		}},
		Render: &monitor.DeployReport{Deploys: []monitor.Deploy{{Service: "api", Status: "live"}}},
	}
}

func TestForLinkedInBusyDay(t *testing.T) {
	want := "🚀 Builder's Daily Log | Oct 16, 2026\n\n" +
		"What shipped today:\n" +
		"⚡ 7 commits pushed across octo/api, octo/web\n" +
		"🟢 2 Vercel deploys went live — web, docs\n" +
		"🔧 1 Render services updated — api\n" +
		"\nBiggest win: Kept the momentum going. Consistency is key.\n\n" +
		"Building in public. Every deploy counts. 🏗️\n\n" +
		"#buildinpublic #webdev #opensource #coding #developer"

	if got := ForLinkedIn(busyDay(), day); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestForLinkedInQuietDay(t *testing.T) {
	got := ForLinkedIn(Data{}, day)
	if !strings.Contains(got, "No major updates today, but the grind continues behind the scenes. 🛠️\n") {
		t.Errorf("quiet day text missing:\n%s", got)
	}
	if strings.Contains(got, "commits pushed") || strings.Contains(got, "Vercel") {
		t.Errorf("unexpected sections:\n%s", got)
	}
}

func TestForLinkedInDeploysOnly(t *testing.T) {
	d := Data{Render: &monitor.DeployReport{Deploys: []monitor.Deploy{{Service: "worker"}}}}
	got := ForLinkedIn(d, day)
	if strings.Contains(got, "No major updates") {
		t.Errorf("deploy day reported as quiet:\n%s", got)
	}
}

func TestForTwitter(t *testing.T) {
	tests := []struct {
		name string
		data Data
		want string
	}{
		{
			name: "commits",
			data: busyDay(),
			want: "🔨 Daily build log:\n[7] commits | [3] deploys | [3] services updated\n" +
				"Main highlight: Pushed code to octo/api\nShipping daily 🚀 #buildinpublic",
		},
		{
			name: "commits without repo names",
			data: Data{GitHub: &monitor.Activity{Commits: 2}},
			want: "🔨 Daily build log:\n[2] commits | [0] deploys | [0] services updated\n" +
				"Main highlight: Pushed code to repos\nShipping daily 🚀 #buildinpublic",
		},
		{
			name: "deploys only",
			data: Data{Vercel: &monitor.DeploymentReport{Deployments: []monitor.Deployment{{Project: "web"}}}},
			want: "🔨 Daily build log:\n[0] commits | [1] deploys | [1] services updated\n" +
				"Main highlight: Deployed updates to production\nShipping daily 🚀 #buildinpublic",
		},
		{
			name: "nothing",
			data: Data{},
			want: "🔨 Daily build log:\n[0] commits | [0] deploys | [0] services updated\n" +
				"Main highlight: Planning and refactoring day\nShipping daily 🚀 #buildinpublic",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForTwitter(tt.data); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}
