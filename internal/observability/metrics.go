package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UnknownProcedure labels calls to names no procedure is registered under.
const UnknownProcedure = "unknown"

var (
	// ProcedureCalls counts procedure invocations by name and outcome code.
	ProcedureCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_procedure_calls_total",
		Help: "Total number of procedure calls by procedure and outcome",
	}, []string{"procedure", "code"})

	// ProcedureLatency records procedure latency in seconds.
	ProcedureLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_procedure_latency_seconds",
		Help:    "Procedure latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"procedure"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EventsPublished counts domain events by type and result.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_events_published_total",
		Help: "Total number of domain events published",
	}, []string{"event_type", "result"})

	// WebSocketConnections is the gauge of connected event stream clients.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_websocket_connections",
		Help: "Number of connected event stream clients",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveProcedure records one finished procedure call.
func ObserveProcedure(procedure, code string, elapsed time.Duration) {
	ProcedureCalls.WithLabelValues(procedure, code).Inc()
	ProcedureLatency.WithLabelValues(procedure).Observe(elapsed.Seconds())
}
