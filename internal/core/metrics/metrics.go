package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DBUp reports the result of the last database health check (1 healthy, 0 not)
	DBUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsdesk_db_up",
			Help: "Whether the last database health check succeeded",
		},
	)

	// DBConnectionPoolUsage tracks open connections as a percentage of the pool limit
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsdesk_db_connection_pool_usage_percent",
			Help: "Open database connections as a percentage of max open connections",
		},
	)

	// DBTransientConflicts counts duplicate prepared statement errors seen by the retry executor
	DBTransientConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_db_transient_conflicts_total",
			Help: "Total number of duplicate prepared statement errors observed",
		},
	)

	// DBRetries counts operation attempts made on fresh handles
	DBRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_db_retries_total",
			Help: "Total number of retried database operations by outcome",
		},
		[]string{"outcome"},
	)

	// DBFreshHandles counts fresh handles opened outside the primary pool
	DBFreshHandles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_db_fresh_handles_total",
			Help: "Total number of fresh database handles opened",
		},
	)

	// HTTPRequests tracks requests served by the health server
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "code"},
	)

	// ServiceHealthy tracks per-service health as reported by the monitor
	ServiceHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "newsdesk_service_healthy",
			Help: "Whether a dependent service passed its last health check",
		},
		[]string{"service"},
	)
)
