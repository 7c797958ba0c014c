package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_lookups_total",
		Help: "Cache-aside lookups by key family and result (hit, miss, error)",
	}, []string{"family", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikeTransitions counts like/unlike attempts by target kind and outcome.
	LikeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_like_transitions_total",
		Help: "Like and unlike attempts by action, target kind and outcome",
	}, []string{"action", "target", "outcome"})

	// SlugCollisions counts slug candidates rejected because they were taken.
	SlugCollisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_slug_collisions_total",
		Help: "Slug candidates rejected by the existence check or the unique index",
	}, []string{"stage"})

	// CascadeDeletedRows counts rows removed by post cascades by table.
	CascadeDeletedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cascade_deleted_rows_total",
		Help: "Rows removed while cascading a post deletion",
	}, []string{"table"})

	// BlobReleaseFailures counts best-effort blob deletions that failed.
	BlobReleaseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_blob_release_failures_total",
		Help: "Blob deletions that failed after the owning data was removed or replaced",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
