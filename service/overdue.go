package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/forklift-rental/rental"
)

// Run triggers
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerStartup  = "startup"
)

// NotifyOverdue applies an overdue action to record id. Terminating also
// moves the contract to MID_TERM_TERMINATION in the same transaction.
func (s *Service) NotifyOverdue(ctx context.Context, actor *rental.User, id string, action rental.OverdueAction) (rental.OverdueRecord, error) {
	if err := authorize(actor, rental.CapOverdue); err != nil {
		return rental.OverdueRecord{}, err
	}
	today := s.Today()

	var out rental.OverdueRecord
	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		visible := rental.VisibleSnapshot(actor, snap)
		record, ok := visible.OverdueRecord(id)
		if !ok {
			return &rental.NotFoundError{Entity: "overdue record", ID: id}
		}
		c, ok := visible.Contract(record.ContractID)
		if !ok {
			return &rental.NotFoundError{Entity: "contract", ID: record.ContractID}
		}

		next, err := rental.NotifyOverdue(record, c, action, today, s.calc.Fee(c, today))
		if err != nil {
			return err
		}
		if action == rental.OverdueTerminate {
			terminated, err := rental.ApplyContract(c, rental.ContractTerminate, today)
			if err != nil {
				return err
			}
			if err := tx.PutContract(ctx, terminated); err != nil {
				return err
			}
		}
		out = next
		return tx.PutOverdueRecord(ctx, next)
	})
	if err != nil {
		return rental.OverdueRecord{}, err
	}
	s.countTransition("overdue", string(action))
	if action == rental.OverdueTerminate {
		s.countTransition("contract", string(rental.ContractTerminate))
	}
	s.log.Info("overdue action recorded",
		zap.String("overdue_id", id),
		zap.String("contract_id", out.ContractID),
		zap.String("action", string(action)),
		zap.Stringer("accumulated_fee", out.AccumulatedOverdueFee))
	return out, nil
}

// ReconcileOverdue opens records for contracts in arrears and refreshes the
// cached fee of existing ones, as of today. The run is recorded whether or
// not it succeeds.
func (s *Service) ReconcileOverdue(ctx context.Context, trigger string) (rental.OverdueRun, error) {
	run := rental.OverdueRun{
		ID:        s.newID(),
		AsOf:      s.Today(),
		Trigger:   trigger,
		Status:    rental.RunRunning,
		StartedAt: s.now().UTC(),
	}
	log := s.log.With(zap.String("run_id", run.ID), zap.String("trigger", trigger), zap.Stringer("as_of", run.AsOf))
	s.saveRun(ctx, log, run)

	var (
		plan   rental.OverduePlan
		issues []rental.Inconsistency
	)
	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		plan = rental.PlanOverdue(snap, run.AsOf, s.calc, s.newID)
		for _, o := range plan.Create {
			if err := tx.PutOverdueRecord(ctx, o); err != nil {
				return fmt.Errorf("failed to open overdue record for contract %s: %w", o.ContractID, err)
			}
		}
		for _, o := range plan.Refresh {
			if err := tx.PutOverdueRecord(ctx, o); err != nil {
				return fmt.Errorf("failed to refresh overdue record %s: %w", o.ID, err)
			}
		}
		issues = rental.CheckConsistency(snap)
		return nil
	})

	completed := s.now().UTC()
	run.CompletedAt = &completed
	if err != nil {
		run.Status = rental.RunFailed
		run.Error = err.Error()
		s.saveRun(ctx, log, run)
		if s.metrics != nil {
			s.metrics.OverdueRuns.WithLabelValues(rental.RunFailed).Inc()
		}
		log.Error("overdue reconciliation failed", zap.Error(err))
		return run, fmt.Errorf("overdue reconciliation failed: %w", err)
	}

	run.Status = rental.RunCompleted
	run.Created = len(plan.Create)
	run.Refreshed = len(plan.Refresh)
	run.Inconsistencies = len(issues)
	s.saveRun(ctx, log, run)

	if s.metrics != nil {
		s.metrics.OverdueRuns.WithLabelValues(rental.RunCompleted).Inc()
		s.metrics.OverdueRecordsCreated.Add(float64(run.Created))
		s.metrics.OverdueRecordsOpen.Set(float64(plan.Open))
	}
	for _, issue := range issues {
		log.Warn("forklift and contract disagree",
			zap.String("kind", issue.Kind),
			zap.String("forklift_id", issue.ForkliftID),
			zap.String("contract_id", issue.ContractID),
			zap.String("detail", issue.Detail))
	}
	log.Info("overdue reconciliation completed",
		zap.Int("created", run.Created),
		zap.Int("refreshed", run.Refreshed),
		zap.Int("inconsistencies", run.Inconsistencies),
		zap.Duration("duration", completed.Sub(run.StartedAt)))
	return run, nil
}

func (s *Service) saveRun(ctx context.Context, log *zap.Logger, run rental.OverdueRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveOverdueRun(ctx, run); err != nil {
		log.Error("failed to record overdue run", zap.Error(err))
	}
}

// OverdueRuns lists recorded runs, newest first.
func (s *Service) OverdueRuns(ctx context.Context, actor *rental.User, limit int) ([]rental.OverdueRun, error) {
	if err := authorize(actor, rental.CapOverdue); err != nil {
		return nil, err
	}
	if s.runs == nil {
		return []rental.OverdueRun{}, nil
	}
	runs, err := s.runs.ListOverdueRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue runs: %w", err)
	}
	return runs, nil
}

// Consistency reports forklift/contract drift among the records actor may
// see. The check runs on the full snapshot so that references into hidden
// records still resolve.
func (s *Service) Consistency(ctx context.Context, actor *rental.User) ([]rental.Inconsistency, error) {
	if err := authorize(actor, rental.CapContracts); err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	visible := rental.VisibleSnapshot(actor, snap)
	out := []rental.Inconsistency{}
	for _, issue := range rental.CheckConsistency(snap) {
		_, forkliftSeen := visible.Forklift(issue.ForkliftID)
		_, contractSeen := visible.Contract(issue.ContractID)
		if forkliftSeen || contractSeen {
			out = append(out, issue)
		}
	}
	return out, nil
}
