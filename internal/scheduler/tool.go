package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/openclaw/openclaw/internal/actor"
	"github.com/openclaw/openclaw/internal/capability"
)

// Capability names exposed to the assistant.
const (
	ListJobsCapability  = "list_scheduled_jobs"
	PauseJobCapability  = "pause_scheduled_job"
	ResumeJobCapability = "resume_scheduled_job"
)

// ErrOwnerOnly is returned when anyone but the owner asks to pause or resume a job.
var ErrOwnerOnly = errors.New("only the owner can pause or resume scheduled jobs")

// RegisterCapabilities lets the assistant inspect and toggle scheduled jobs
// from chat. Toggling requires an owner actor in the request context.
func RegisterCapabilities(r *capability.Registry, s *Scheduler) error {
	nameParam := []capability.Param{
		{Name: "name", Type: "string", Description: "Job name, e.g. daily_cycle or keepalive.", Required: true},
	}
	caps := []struct {
		cap  capability.Capability
		exec capability.Executor
	}{
		{
			cap: capability.Capability{
				Name:        ListJobsCapability,
				Description: "List the agent's scheduled jobs with their schedule, paused state, last run and next run.",
			},
			exec: func(context.Context, capability.Args) (any, error) {
				jobs := s.ListJobs()
				if len(jobs) == 0 {
					return "No scheduled jobs.", nil
				}
				return jobs, nil
			},
		},
		{
			cap: capability.Capability{
				Name:        PauseJobCapability,
				Description: "Pause a scheduled job so it stops firing until resumed.",
				Params:      nameParam,
			},
			exec: func(ctx context.Context, args capability.Args) (any, error) {
				if !actor.IsOwner(ctx) {
					return nil, ErrOwnerOnly
				}
				name := args.String("name")
				if name == "" {
					return nil, fmt.Errorf("name is required")
				}
				if err := s.PauseJob(name); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Job %q paused.", name), nil
			},
		},
		{
			cap: capability.Capability{
				Name:        ResumeJobCapability,
				Description: "Resume a paused scheduled job.",
				Params:      nameParam,
			},
			exec: func(ctx context.Context, args capability.Args) (any, error) {
				if !actor.IsOwner(ctx) {
					return nil, ErrOwnerOnly
				}
				name := args.String("name")
				if name == "" {
					return nil, fmt.Errorf("name is required")
				}
				if err := s.ResumeJob(name); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Job %q resumed.", name), nil
			},
		},
	}
	for _, c := range caps {
		if err := r.Register(c.cap, c.exec); err != nil {
			return err
		}
	}
	return nil
}
