package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wanderlog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthEvents counts authentication outcomes by event and result.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlog_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// StoryEvents counts story lifecycle operations.
	StoryEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlog_story_events_total",
		Help: "Story lifecycle events by type",
	}, []string{"event"})

	// InteractionEvents counts like/save ledger changes.
	InteractionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlog_interaction_events_total",
		Help: "Like and save ledger changes by kind and action",
	}, []string{"kind", "action"})

	// MediaOperations counts image storage operations by driver, operation and outcome.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlog_media_operations_total",
		Help: "Image storage operations by driver, operation and outcome",
	}, []string{"driver", "operation", "outcome"})

	// CacheLookups counts cache-aside hits and misses by cache name.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlog_cache_lookups_total",
		Help: "Cache-aside lookups by cache and result",
	}, []string{"cache", "result"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// Outcome maps an error to a metric label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
