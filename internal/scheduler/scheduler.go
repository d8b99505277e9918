// Package scheduler runs the agent's named cron jobs.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/openclaw/openclaw/internal/logging"
)

// Task is the work a job performs on each tick.
type Task func(ctx context.Context) error

// Job is the runtime view of a scheduled job.
type Job struct {
	Name      string    `yaml:"name" json:"name"`
	Spec      string    `yaml:"spec" json:"spec"`
	Paused    bool      `yaml:"paused,omitempty" json:"paused,omitempty"`
	LastRun   time.Time `yaml:"-" json:"last_run,omitempty"`
	LastError string    `yaml:"-" json:"last_error,omitempty"`
	Next      time.Time `yaml:"-" json:"next,omitempty"`
}

type runningJob struct {
	job     Job
	task    Task
	entry   cron.EntryID
	running sync.Mutex
}

// Scheduler manages periodic background jobs.
type Scheduler struct {
	mu      sync.RWMutex
	jobs    map[string]*runningJob
	cron    *cron.Cron
	dataDir string

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*config)

type config struct {
	loc     *time.Location
	dataDir string
}

// WithLocation sets the zone cron specs are evaluated in. Default is local time.
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithDataDir persists paused jobs under dir so they stay paused across restarts.
func WithDataDir(dir string) Option {
	return func(c *config) { c.dataDir = dir }
}

func New(opts ...Option) *Scheduler {
	cfg := config{loc: time.Local}
	for _, o := range opts {
		o(&cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:    make(map[string]*runningJob),
		cron:    cron.New(cron.WithLocation(cfg.loc)),
		dataDir: cfg.dataDir,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the clock, cancels running tasks and waits for them to drain.
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	s.cancel()
	<-stopped.Done()
}

// AddJob registers a job. Jobs persisted as paused come back paused.
func (s *Scheduler) AddJob(name, spec string, task Task) error {
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if task == nil {
		return fmt.Errorf("job %q: task is required", name)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule for job %q: %w", name, err)
	}

	paused, err := s.persistedPaused(name)
	if err != nil {
		logging.For("scheduler").WithError(err).Warn("loading persisted jobs")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already exists", name)
	}
	rj := &runningJob{job: Job{Name: name, Spec: spec, Paused: paused}, task: task}
	if !paused {
		if err := s.scheduleLocked(rj); err != nil {
			return err
		}
	}
	s.jobs[name] = rj
	return nil
}

// PauseJob stops a job from firing until ResumeJob.
func (s *Scheduler) PauseJob(name string) error {
	s.mu.Lock()
	rj, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("job %q not found", name)
	}
	if rj.job.Paused {
		s.mu.Unlock()
		return fmt.Errorf("job %q is already paused", name)
	}
	s.cron.Remove(rj.entry)
	rj.entry = 0
	rj.job.Paused = true
	s.mu.Unlock()

	return s.persist()
}

// ResumeJob resumes a paused job.
func (s *Scheduler) ResumeJob(name string) error {
	s.mu.Lock()
	rj, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("job %q not found", name)
	}
	if !rj.job.Paused {
		s.mu.Unlock()
		return fmt.Errorf("job %q is not paused", name)
	}
	if err := s.scheduleLocked(rj); err != nil {
		s.mu.Unlock()
		return err
	}
	rj.job.Paused = false
	s.mu.Unlock()

	return s.persist()
}

// ListJobs returns all registered jobs sorted by name.
func (s *Scheduler) ListJobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, rj := range s.jobs {
		out = append(out, s.snapshotLocked(rj))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetJob returns a job by name.
func (s *Scheduler) GetJob(name string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rj, ok := s.jobs[name]
	if !ok {
		return Job{}, false
	}
	return s.snapshotLocked(rj), true
}

func (s *Scheduler) snapshotLocked(rj *runningJob) Job {
	j := rj.job
	if !j.Paused && rj.entry != 0 {
		j.Next = s.cron.Entry(rj.entry).Next
	}
	return j
}

func (s *Scheduler) scheduleLocked(rj *runningJob) error {
	id, err := s.cron.AddFunc(rj.job.Spec, func() {
		_ = s.execute(s.ctx, rj)
	})
	if err != nil {
		return fmt.Errorf("scheduling job %q: %w", rj.job.Name, err)
	}
	rj.entry = id
	return nil
}

// execute runs one tick. Ticks of the same job never overlap; a tick that
// fires while the previous one is still running is dropped.
func (s *Scheduler) execute(ctx context.Context, rj *runningJob) (err error) {
	log := logging.For("scheduler").WithField("job", rj.job.Name)
	if !rj.running.TryLock() {
		log.Warn("previous run still in progress, skipping")
		return fmt.Errorf("job %q is already running", rj.job.Name)
	}
	defer rj.running.Unlock()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %q panicked: %v", rj.job.Name, p)
		}
		s.mu.Lock()
		rj.job.LastRun = start
		rj.job.LastError = ""
		if err != nil {
			rj.job.LastError = err.Error()
		}
		s.mu.Unlock()
		if err != nil {
			log.WithError(err).Error("job failed")
		} else {
			log.WithField("duration", time.Since(start)).Debug("job finished")
		}
	}()

	return rj.task(ctx)
}

func (s *Scheduler) persistPath() string {
	return filepath.Join(s.dataDir, "scheduler", "jobs.yaml")
}

func (s *Scheduler) persist() error {
	if s.dataDir == "" {
		return nil
	}

	s.mu.RLock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, rj := range s.jobs {
		jobs = append(jobs, Job{Name: rj.job.Name, Spec: rj.job.Spec, Paused: rj.job.Paused})
	}
	s.mu.RUnlock()
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	if err := os.MkdirAll(filepath.Dir(s.persistPath()), 0700); err != nil {
		return fmt.Errorf("creating scheduler dir: %w", err)
	}
	data, err := yaml.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("marshaling jobs: %w", err)
	}
	return os.WriteFile(s.persistPath(), data, 0600)
}

func (s *Scheduler) persistedPaused(name string) (bool, error) {
	if s.dataDir == "" {
		return false, nil
	}
	data, err := os.ReadFile(s.persistPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading jobs file: %w", err)
	}
	var jobs []Job
	if err := yaml.Unmarshal(data, &jobs); err != nil {
		return false, fmt.Errorf("parsing jobs file: %w", err)
	}
	for _, j := range jobs {
		if j.Name == name {
			return j.Paused, nil
		}
	}
	return false, nil
}
