package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/forklift-rental/api"
	"github.com/warp/forklift-rental/rental"
	"github.com/warp/forklift-rental/rental/store"
	"github.com/warp/forklift-rental/service"
)

func TestScheduler_RunNowRecordsRun(t *testing.T) {
	// GIVEN: A scheduler that has not been started
	ts := setupTestServer(t, false)
	s := api.NewScheduler(ts.svc, "0 0 1 * * *", time.UTC, nil)
	assert.True(t, s.Next().IsZero())

	// WHEN: Reconciling on demand
	run, err := s.RunNow(context.Background(), service.TriggerStartup)

	// THEN: The run completes and is listed
	require.NoError(t, err)
	assert.Equal(t, rental.RunCompleted, run.Status)
	runs, err := ts.mem.ListOverdueRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, service.TriggerStartup, runs[0].Trigger)
}

func TestScheduler_StartAndStop(t *testing.T) {
	ts := setupTestServer(t, false)
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	s := api.NewScheduler(ts.svc, "0 0 1 * * *", seoul, nil)

	require.NoError(t, s.Start())
	next := s.Next()
	assert.False(t, next.IsZero())
	assert.Equal(t, 1, next.In(seoul).Hour())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	ts := setupTestServer(t, false)
	s := api.NewScheduler(ts.svc, "every night", time.UTC, nil)

	assert.Error(t, s.Start())
}

func TestScheduler_TickLogsResult(t *testing.T) {
	// GIVEN: A scheduler over the demo data
	ts := setupTestServer(t, false)
	core, logs := observer.New(zapcore.DebugLevel)
	s := api.NewScheduler(ts.svc, "0 0 1 * * *", time.UTC, zap.New(core))

	// WHEN: The job fires
	s.Tick()

	// THEN: A scheduled run is recorded and reported
	runs, err := ts.mem.ListOverdueRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, service.TriggerSchedule, runs[0].Trigger)

	entries := logs.FilterMessage("scheduled overdue reconciliation finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, runs[0].ID, entries[0].ContextMap()["run_id"])
}

type brokenTxStore struct {
	*store.Memory
}

func (brokenTxStore) WithTx(context.Context, func(rental.Store) error) error {
	return errors.New("database is locked")
}

func TestScheduler_TickLogsFailure(t *testing.T) {
	// GIVEN: A store whose transactions fail
	mem := store.NewMemory()
	svc := service.New(brokenTxStore{mem}, mem, service.Options{Now: func() time.Time { return testNow }})
	core, logs := observer.New(zapcore.DebugLevel)
	s := api.NewScheduler(svc, "0 0 1 * * *", time.UTC, zap.New(core))

	// WHEN: The job fires
	s.Tick()

	// THEN: The failure is logged at warn with the run id
	entries := logs.FilterMessage("scheduled overdue reconciliation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.NotEmpty(t, fields["run_id"])
	assert.Contains(t, fields["error"], "database is locked")
}
