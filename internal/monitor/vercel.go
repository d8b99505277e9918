package monitor

import (
	"context"
	"fmt"
	"net/http"
)

const vercelDefaultBaseURL = "https://api.vercel.com"

var vercelStates = map[string]bool{"READY": true, "ERROR": true, "BUILDING": true}

type Deployment struct {
	Project string `json:"project"`
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
	// Duration is the build time in seconds, nil while the build has not finished.
	Duration  *float64 `json:"duration"`
	CreatedAt int64    `json:"createdAt"`
}

type DeploymentReport struct {
	Deployments []Deployment `json:"deployments"`
}

type Vercel struct {
	client
	token string
}

func NewVercel(token string, opts ...Option) *Vercel {
	return &Vercel{client: newClient(vercelDefaultBaseURL, opts), token: token}
}

type vercelResponse struct {
	Deployments []struct {
		Name       string `json:"name"`
		State      string `json:"state"`
		URL        string `json:"url"`
		Created    int64  `json:"created"`
		BuildingAt int64  `json:"buildingAt"`
		ReadyAt    int64  `json:"readyAt"`
	} `json:"deployments"`
}

// Deployments lists finished or in-flight deployments created in the last day.
func (v *Vercel) Deployments(ctx context.Context) (*DeploymentReport, error) {
	if v.token == "" {
		return nil, fmt.Errorf("vercel: token %w", ErrNotConfigured)
	}

	u := fmt.Sprintf("%s/v6/deployments?since=%d&limit=100", v.baseURL, v.since().UnixMilli())
	h := http.Header{}
	h.Set("Authorization", "Bearer "+v.token)

	var resp vercelResponse
	if err := v.getJSON(ctx, "vercel", u, h, &resp); err != nil {
		return nil, fmt.Errorf("fetch vercel deployments: %w", err)
	}

	report := &DeploymentReport{Deployments: []Deployment{}}
	for _, d := range resp.Deployments {
		if !vercelStates[d.State] {
			continue
		}
		dep := Deployment{
			Project:   d.Name,
			Status:    d.State,
			CreatedAt: d.Created,
		}
		if d.URL != "" {
			dep.URL = "https://" + d.URL
		}
		if d.BuildingAt > 0 && d.ReadyAt > 0 {
			secs := float64(d.ReadyAt-d.BuildingAt) / 1000
			dep.Duration = &secs
		}
		report.Deployments = append(report.Deployments, dep)
	}
	return report, nil
}
