package scheduler

import (
	"context"
	"fmt"
	"time"

	"content_lifecycle_engine/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// LifecycleRunner is the sweep entry point the scheduler triggers.
type LifecycleRunner interface {
	RunOperations(ctx context.Context, now time.Time) (app.SweepResult, error)
}

// Alerter pushes short operational messages to an admin channel. Optional.
type Alerter interface {
	SendAlert(text string) error
}

// SweepScheduler triggers lifecycle sweeps on a cron cadence. Timeouts are
// the scheduler's responsibility, not the engine's; a sweep aborted between
// chunks resumes cleanly on the next trigger.
type SweepScheduler struct {
	cronEngine   *cron.Cron
	runner       LifecycleRunner
	logger       *logrus.Logger
	cronSpec     string
	sweepTimeout time.Duration
	alerter      Alerter
}

func NewSweepScheduler(
	runner LifecycleRunner,
	logger *logrus.Logger,
	cronSpec string, // e.g. "0 3 * * *" (03:00 daily)
	sweepTimeout time.Duration,
	alerter Alerter, // may be nil
) *SweepScheduler {
	return &SweepScheduler{
		cronEngine:   cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		runner:       runner,
		logger:       logger,
		cronSpec:     cronSpec,
		sweepTimeout: sweepTimeout,
		alerter:      alerter,
	}
}

// Start registers the sweep job and starts the cron engine.
func (s *SweepScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for lifecycle sweep.")
		s.RunSweep()
	})
	if err != nil {
		return fmt.Errorf("could not add lifecycle sweep cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Infof("Sweep scheduler started with spec %q.", s.cronSpec)
	return nil
}

// RunSweep executes one sweep immediately, with the configured timeout.
func (s *SweepScheduler) RunSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.sweepTimeout)
	defer cancel()

	now := time.Now()
	result, err := s.runner.RunOperations(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("Lifecycle sweep aborted.")
	}

	if s.alerter == nil {
		return
	}

	summary := fmt.Sprintf(
		"Lifecycle sweep finished: %d processed, %d updated, %d deleted, %d ignored, %d skipped, %d failed.",
		result.Processed, result.Updated, result.Deleted, result.Ignored, result.Skipped, result.Failed,
	)
	if err != nil {
		summary += fmt.Sprintf(" Aborted early: %v.", err)
	}
	if alertErr := s.alerter.SendAlert(summary); alertErr != nil {
		s.logger.WithError(alertErr).Error("Sending sweep summary alert failed.")
	}
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *SweepScheduler) Stop() {
	s.logger.Info("Stopping sweep scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Sweep scheduler gracefully stopped.")
}
