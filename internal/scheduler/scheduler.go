// Package scheduler runs the periodic background jobs: the intake
// schedule sweep, event log pruning, and GeoIP database reloads.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/geoip"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
)

// EventRetention is how long event log entries are kept before the
// nightly prune removes them.
const EventRetention = 90 * 24 * time.Hour

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron   *cron.Cron
	intake *service.IntakeService
	events *service.EventService
	geo    *geoip.Lookup
	logger *slog.Logger
}

// New creates a scheduler. The GeoIP lookup may be nil when the
// database is not configured.
func New(intake *service.IntakeService, events *service.EventService, geo *geoip.Lookup, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		intake: intake,
		events: events,
		geo:    geo,
		logger: logger,
	}
}

// Start registers the jobs and begins the cron runner.
func (s *Scheduler) Start() error {
	// Sweep the intake schedule every minute so elapsed open/close
	// dates fire even when nobody is reading the status.
	if _, err := s.cron.AddFunc("* * * * *", s.sweepIntake); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("30 3 * * *", s.pruneEvents); err != nil {
		return err
	}

	if s.geo != nil {
		if _, err := s.cron.AddFunc("0 4 * * *", s.reloadGeoIP); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) sweepIntake() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.intake.ReadCurrentStatus(ctx); err != nil {
		s.logger.Error("intake schedule sweep failed", "error", err)
	}
}

func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pruned, err := s.events.Prune(ctx, EventRetention)
	if err != nil {
		s.logger.Error("event log prune failed", "error", err)
		return
	}
	if pruned > 0 {
		s.logger.Info("pruned event log", "removed", pruned)
	}
}

func (s *Scheduler) reloadGeoIP() {
	if err := s.geo.Reload(); err != nil {
		s.logger.Error("geoip reload failed", "error", err)
	}
}
