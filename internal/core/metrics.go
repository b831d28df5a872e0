// AngelaMos | 2026
// metrics.go

package core

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// LedgerAppends counts assignment rows by what produced them:
	// "create", "assign" or "bulk".
	LedgerAppends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_ledger_appends_total",
			Help: "Assignment ledger rows appended",
		},
		[]string{"origin"},
	)

	BulkOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_bulk_operations_total",
			Help: "Bulk operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	BulkRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_bulk_rows_total",
			Help: "Lead ids processed by bulk operations, per result partition",
		},
		[]string{"operation", "partition"},
	)

	DashboardBuild = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_dashboard_build_seconds",
			Help:    "Time spent building a dashboard summary",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"role"},
	)
)

var registerOnce sync.Once

func RegisterMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			HTTPRequests,
			HTTPDuration,
			LedgerAppends,
			BulkOperations,
			BulkRows,
			DashboardBuild,
		)
	})
}
