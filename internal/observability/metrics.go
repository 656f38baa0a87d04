package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LikeToggles counts toggles by resulting state (liked, unliked).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antisocial_like_toggles_total",
		Help: "Total number of like toggles by resulting state",
	}, []string{"result"})

	// LikeConflictsResolved counts toggles that lost a uniqueness race and were re-read.
	LikeConflictsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "antisocial_like_conflicts_resolved_total",
		Help: "Total number of concurrent toggle conflicts resolved by re-reading state",
	})

	// CacheLookups counts cache-aside lookups by outcome (hit, miss, error, stale_skipped).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antisocial_cache_lookups_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"outcome"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antisocial_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// EventPublishErrors counts failed like event deliveries by sink.
	EventPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antisocial_event_publish_errors_total",
		Help: "Total number of failed like event publishes by sink",
	}, []string{"sink"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "antisocial_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "antisocial_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antisocial_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
