package scheduler

import (
	"context"
	"fmt"
	"time"

	"EnviroMonitorAPI/internal/config"
	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/service"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic alert maintenance jobs: the staleness sweep
// on a fixed interval and the retention purge on a cron schedule.
type Scheduler struct {
	cron         *cron.Cron
	alertService service.IAlertService
	cfg          config.AlertsConfig
	log          *logger.Logger
}

func New(alertService service.IAlertService, cfg config.AlertsConfig, log *logger.Logger) *Scheduler {
	c := cron.New(
		cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		),
	)

	return &Scheduler{
		cron:         c,
		alertService: alertService,
		cfg:          cfg,
		log:          log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	sweepSpec := fmt.Sprintf("@every %s", s.cfg.SweepInterval)
	if _, err := s.cron.AddFunc(sweepSpec, s.runSweep); err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.PurgeSchedule, s.runPurge); err != nil {
		return fmt.Errorf("failed to schedule purge job: %w", err)
	}

	s.cron.Start()
	s.log.Info("Scheduler started (sweep %s, purge %q)", sweepSpec, s.cfg.PurgeSchedule)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.alertService.Sweep(ctx); err != nil {
		s.log.Error("Sweep job failed: %v", err)
	}
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg.RetentionPeriod)
	resolvedOnly := true
	if _, err := s.alertService.Purge(ctx, &cutoff, &resolvedOnly); err != nil {
		s.log.Error("Purge job failed: %v", err)
	}
}
