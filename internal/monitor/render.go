package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openclaw/openclaw/internal/logging"
)

const renderDefaultBaseURL = "https://api.render.com"

type Deploy struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type DeployReport struct {
	Deploys []Deploy `json:"deploys"`
}

type Render struct {
	client
	apiKey string
}

func NewRender(apiKey string, opts ...Option) *Render {
	return &Render{client: newClient(renderDefaultBaseURL, opts), apiKey: apiKey}
}

type renderService struct {
	Service struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"service"`
}

type renderDeploy struct {
	Deploy struct {
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"deploy"`
}

// Deploys walks every service and keeps deploys created in the last day.
// A service whose deploy list cannot be fetched is logged and skipped.
func (r *Render) Deploys(ctx context.Context) (*DeployReport, error) {
	if r.apiKey == "" {
		return nil, fmt.Errorf("render: api key %w", ErrNotConfigured)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+r.apiKey)
	h.Set("Accept", "application/json")

	var services []renderService
	if err := r.getJSON(ctx, "render", r.baseURL+"/v1/services?limit=100", h, &services); err != nil {
		return nil, fmt.Errorf("fetch render services: %w", err)
	}

	log := logging.For("monitor")
	since := r.since()
	report := &DeployReport{Deploys: []Deploy{}}
	for _, svc := range services {
		u := fmt.Sprintf("%s/v1/services/%s/deploys?limit=20", r.baseURL, url.PathEscape(svc.Service.ID))
		var deploys []renderDeploy
		if err := r.getJSON(ctx, "render", u, h, &deploys); err != nil {
			log.WithError(err).Warnf("render: deploys for service %s", svc.Service.Name)
			continue
		}
		for _, d := range deploys {
			if !d.Deploy.CreatedAt.After(since) {
				continue
			}
			report.Deploys = append(report.Deploys, Deploy{
				Service:   svc.Service.Name,
				Status:    d.Deploy.Status,
				CreatedAt: d.Deploy.CreatedAt,
			})
		}
	}
	return report, nil
}
