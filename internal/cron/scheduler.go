package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler manages periodic job execution using cron expressions. Each
// job holds a per-job mutex so a slow run is skipped rather than stacked
// (TryLock, so the check and acquire are one atomic step).
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   []Job
	names  map[string]struct{}
	locks  map[string]*sync.Mutex
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. Jobs must be registered before Start().
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		names:  make(map[string]struct{}),
		locks:  make(map[string]*sync.Mutex),
		logger: logger,
	}
}

// RegisterJob adds a job to the scheduler. Must be called before Start().
// The schedule expression is checked here so a bad entry fails at
// registration, and duplicate names are rejected.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("cron: duplicate job name %q", name)
	}
	if _, err := scheduleParser.Parse(j.Schedule()); err != nil {
		return fmt.Errorf("cron: invalid schedule for job %q: %w", name, err)
	}

	s.names[name] = struct{}{}
	s.locks[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// JobNames returns the registered job names, in registration order.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name()
	}
	return names
}

// scheduleParser accepts standard 5-field cron expressions.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Start begins executing registered jobs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.cron = cron.New(cron.WithParser(scheduleParser))

	for _, j := range s.jobs {
		job := j
		lock := s.locks[job.Name()]

		_, err := s.cron.AddFunc(job.Schedule(), func() {
			// If the previous tick is still running, skip this one.
			if !lock.TryLock() {
				s.logger.Warn("cron: job still running, skipping tick",
					"job", job.Name(),
				)
				return
			}
			defer lock.Unlock()

			s.logger.Debug("cron: job started", "job", job.Name())
			if err := job.Run(ctx); err != nil {
				s.logger.Error("cron: job failed",
					"job", job.Name(),
					"error", err,
				)
			} else {
				s.logger.Debug("cron: job completed", "job", job.Name())
			}
		})
		if err != nil {
			cancel()
			return fmt.Errorf("cron: invalid schedule for job %q: %w", job.Name(), err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron: scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for in-flight jobs.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("cron: scheduler stopped")
	}
	return nil
}
