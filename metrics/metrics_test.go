package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/forklift-rental/metrics"
)

func TestObserveRequest(t *testing.T) {
	m := metrics.New()

	m.ObserveRequest(http.MethodGet, http.StatusOK)
	m.ObserveRequest(http.MethodGet, http.StatusOK)
	m.ObserveRequest(http.MethodPost, http.StatusConflict)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "409")))
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := metrics.New()
	b := metrics.New()

	a.OverdueRecordsCreated.Add(3)

	assert.Equal(t, 3.0, testutil.ToFloat64(a.OverdueRecordsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.OverdueRecordsCreated))
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.OverdueRuns.WithLabelValues("completed").Inc()
	m.OverdueRecordsOpen.Set(4)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `forklift_overdue_runs_total{status="completed"} 1`)
	assert.Contains(t, string(body), "forklift_overdue_records_open 4")
}
