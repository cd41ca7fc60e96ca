package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GraphQLOperations counts executed GraphQL operations by name and outcome.
	GraphQLOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratefolio_graphql_operations_total",
		Help: "Total GraphQL operations by operation name and status",
	}, []string{"operation", "status"})

	// GraphQLLatency records GraphQL execution latency.
	GraphQLLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ratefolio_graphql_latency_seconds",
		Help:    "GraphQL operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// GraphQLErrors counts resolver errors by error code.
	GraphQLErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratefolio_graphql_errors_total",
		Help: "Total GraphQL resolver errors by code",
	}, []string{"code"})

	// NotificationsPublished counts realtime events published per type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratefolio_notifications_published_total",
		Help: "Realtime notification events published",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratefolio_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ImagesUploaded counts accepted image uploads, split by dedup outcome.
	ImagesUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratefolio_images_uploaded_total",
		Help: "Image uploads by result",
	}, []string{"result"})
)

// ObserveGraphQL records one finished operation.
func ObserveGraphQL(operation string, start time.Time, failed bool) {
	if operation == "" {
		operation = "anonymous"
	}
	status := "ok"
	if failed {
		status = "error"
	}
	GraphQLOperations.WithLabelValues(operation, status).Inc()
	GraphQLLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
