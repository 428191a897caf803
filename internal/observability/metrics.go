package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesRecorded counts successfully recorded upvotes.
	VotesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techfeed_votes_recorded_total",
		Help: "Total number of upvotes successfully recorded",
	})

	// DuplicateVotesRejected counts upvote attempts rejected by the
	// store-level uniqueness constraint.
	DuplicateVotesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techfeed_duplicate_votes_rejected_total",
		Help: "Total number of upvote attempts rejected as duplicates",
	})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techfeed_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "techfeed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
