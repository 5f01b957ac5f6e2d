// Package metrics exposes prometheus collectors for the back office.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests          *prometheus.CounterVec
	OverdueRuns           *prometheus.CounterVec
	OverdueRecordsCreated prometheus.Counter
	OverdueRecordsOpen    prometheus.Gauge
	ImportRows            *prometheus.CounterVec
	Transitions           *prometheus.CounterVec
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forklift_http_requests_total",
			Help: "Total number of HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		OverdueRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forklift_overdue_runs_total",
			Help: "Total number of overdue reconciliation runs by outcome.",
		}, []string{"status"}),
		OverdueRecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "forklift_overdue_records_created_total",
			Help: "Total number of overdue records opened by reconciliation.",
		}),
		OverdueRecordsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "forklift_overdue_records_open",
			Help: "Number of overdue records whose contract was in arrears at the latest reconciliation.",
		}),
		ImportRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forklift_import_rows_total",
			Help: "Total number of imported spreadsheet rows by result.",
		}, []string{"result"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forklift_transitions_total",
			Help: "Total number of applied state transitions by entity and action.",
		}, []string{"entity", "action"}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest counts one finished HTTP request.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
