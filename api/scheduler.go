/*
scheduler.go - Cron-driven overdue reconciliation

PURPOSE:
  Runs service.ReconcileOverdue on a cron schedule (six fields, seconds
  first; default "0 0 1 * * *" = 01:00 every day in the configured zone).
  Reconciliation opens an OverdueRecord for every contract in arrears and
  refreshes the cached fee of existing ones; it never deletes records.

CONCURRENCY:
  At most one run at a time. A scheduled tick that fires while a run is in
  progress is skipped; RunNow waits for the running one to finish.

SEE ALSO:
  - service/overdue.go: ReconcileOverdue
  - handlers.go: POST /api/overdue/reconcile
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/warp/forklift-rental/rental"
	"github.com/warp/forklift-rental/service"
)

// Scheduler owns the cron runner for overdue reconciliation.
type Scheduler struct {
	svc  *service.Service
	cron *cron.Cron
	spec string
	log  *zap.Logger

	mu sync.Mutex // serializes runs
}

// NewScheduler creates a scheduler firing at spec in loc.
func NewScheduler(svc *service.Service, spec string, loc *time.Location, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		svc:  svc,
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		spec: spec,
		log:  log.Named("scheduler"),
	}
}

// Start registers the job and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("invalid overdue schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("overdue reconciliation scheduled", zap.String("schedule", s.spec))
	return nil
}

// Stop stops the cron runner and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out", zap.Error(ctx.Err()))
	}
}

// RunNow reconciles immediately, waiting for a scheduled run in progress.
func (s *Scheduler) RunNow(ctx context.Context, trigger string) (rental.OverdueRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svc.ReconcileOverdue(ctx, trigger)
}

// tick is the cron job. Failed runs are also recorded by the service.
func (s *Scheduler) tick() {
	if !s.mu.TryLock() {
		s.log.Warn("previous overdue reconciliation still running, skipping")
		return
	}
	defer s.mu.Unlock()
	run, err := s.svc.ReconcileOverdue(context.Background(), service.TriggerSchedule)
	if err != nil {
		s.log.Warn("scheduled overdue reconciliation failed", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	s.log.Debug("scheduled overdue reconciliation finished",
		zap.String("run_id", run.ID),
		zap.Int("created", run.Created),
		zap.Int("refreshed", run.Refreshed))
}

// Next reports when the job fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
