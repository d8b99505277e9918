// Package report turns a day of monitor data into the daily build-log posts.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/openclaw/openclaw/internal/monitor"
)

// Data is one collection of monitor results. Any section may be nil when
// its monitor is unconfigured or failed.
type Data struct {
	GitHub *monitor.Activity
	Vercel *monitor.DeploymentReport
	Render *monitor.DeployReport
}

func (d Data) commits() int {
	if d.GitHub == nil {
		return 0
	}
	return d.GitHub.Commits
}

func (d Data) vercelCount() int {
	if d.Vercel == nil {
		return 0
	}
	return len(d.Vercel.Deployments)
}

func (d Data) renderCount() int {
	if d.Render == nil {
		return 0
	}
	return len(d.Render.Deploys)
}

func (d Data) deploys() int { return d.vercelCount() + d.renderCount() }

// ForLinkedIn renders the long-form daily log dated now.
func ForLinkedIn(d Data, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 Builder's Daily Log | %s\n\n", now.Format("Jan 2, 2006"))
	b.WriteString("What shipped today:\n")

	if n := d.commits(); n > 0 {
		fmt.Fprintf(&b, "⚡ %d commits pushed across %s\n", n, strings.Join(d.GitHub.RepoNames, ", "))
	}
	if n := d.vercelCount(); n > 0 {
		projects := make([]string, 0, n)
		for _, dep := range d.Vercel.Deployments {
			projects = append(projects, dep.Project)
		}
		fmt.Fprintf(&b, "🟢 %d Vercel deploys went live — %s\n", n, strings.Join(projects, ", "))
	}
	if n := d.renderCount(); n > 0 {
		services := make([]string, 0, n)
		for _, dep := range d.Render.Deploys {
			services = append(services, dep.Service)
		}
		fmt.Fprintf(&b, "🔧 %d Render services updated — %s\n", n, strings.Join(services, ", "))
	}
	if d.commits() == 0 && d.deploys() == 0 {
		b.WriteString("No major updates today, but the grind continues behind the scenes. 🛠️\n")
	}

	b.WriteString("\nBiggest win: Kept the momentum going. Consistency is key.\n\n")
	b.WriteString("Building in public. Every deploy counts. 🏗️\n\n")
	b.WriteString("#buildinpublic #webdev #opensource #coding #developer")
	return b.String()
}

// ForTwitter renders the short daily log.
func ForTwitter(d Data) string {
	commits, deploys := d.commits(), d.deploys()

	var b strings.Builder
	b.WriteString("🔨 Daily build log:\n")
	// Every deploy touches one service, so both counters are the same number.
	fmt.Fprintf(&b, "[%d] commits | [%d] deploys | [%d] services updated\n", commits, deploys, deploys)

	switch {
	case commits > 0:
		repo := "repos"
		if len(d.GitHub.RepoNames) > 0 && d.GitHub.RepoNames[0] != "" {
			repo = d.GitHub.RepoNames[0]
		}
		fmt.Fprintf(&b, "Main highlight: Pushed code to %s\n", repo)
	case deploys > 0:
		b.WriteString("Main highlight: Deployed updates to production\n")
	default:
		b.WriteString("Main highlight: Planning and refactoring day\n")
	}

	b.WriteString("Shipping daily 🚀 #buildinpublic")
	return b.String()
}
