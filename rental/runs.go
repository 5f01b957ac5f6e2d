package rental

import (
	"context"
	"time"
)

// OverdueRun records one execution of overdue reconciliation.
type OverdueRun struct {
	ID              string     `json:"id"`
	AsOf            Date       `json:"as_of"`
	Trigger         string     `json:"trigger"` // schedule, manual, startup
	Status          string     `json:"status"`  // running, completed, failed
	Created         int        `json:"created"`
	Refreshed       int        `json:"refreshed"`
	Inconsistencies int        `json:"inconsistencies"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunLog persists reconciliation runs, newest first on read.
type RunLog interface {
	SaveOverdueRun(ctx context.Context, r OverdueRun) error
	ListOverdueRuns(ctx context.Context, limit int) ([]OverdueRun, error)
}
