// Package schedule triggers the daily advisor cycle on a cron expression.
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CycleRunner is the job the scheduler fires.
type CycleRunner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to CycleRunner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// Scheduler fires the advisor cycle on a fixed cron schedule. One cycle at a
// time; the underlying service serializes overlapping triggers.
type Scheduler struct {
	cron   *cron.Cron
	runner CycleRunner
	ctx    context.Context
	log    zerolog.Logger
}

// New creates a scheduler bound to ctx for job execution.
func New(ctx context.Context, runner CycleRunner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		ctx:    ctx,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the daily cycle at the given cron spec.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.cron.AddFunc(dailyCron, s.runCycle); err != nil {
		return fmt.Errorf("register daily cycle: %w", err)
	}
	return nil
}

// Start begins firing registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the cycle immediately, for run-on-start and manual
// triggers.
func (s *Scheduler) RunNow() {
	s.runCycle()
}

func (s *Scheduler) runCycle() {
	s.log.Info().Msg("running advisor cycle")
	if err := s.runner.Run(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("advisor cycle failed")
	}
}
