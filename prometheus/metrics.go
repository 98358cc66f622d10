package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sitebuilder-service/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthErrorsCounter prometheus.CounterVec

	// Tenant context metrics
	TenantContextMissingCounter prometheus.Counter
	TenantNotFoundCounter       prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Resource handler metrics
	ResourceOperationsCounter prometheus.CounterVec

	// Checkout metrics
	CheckoutCounter          prometheus.Counter
	InsufficientStockCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"reason"},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests reaching a handler without tenant context",
		},
	)

	TenantNotFoundCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_not_found_total",
			Help: "Total number of requests for an unknown tenant",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ResourceOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_resource_operations_total",
			Help: "Total number of resource handler operations",
		},
		[]string{"resource", "operation"},
	)

	CheckoutCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_checkouts_total",
			Help: "Total number of completed checkouts",
		},
	)

	InsufficientStockCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_insufficient_stock_total",
			Help: "Total number of cart or checkout requests rejected for stock",
		},
	)
}

// RecordAuthError increments the counter for authentication errors
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordResourceOperation increments the counter for a resource operation
func RecordResourceOperation(resource, operation string) {
	ResourceOperationsCounter.WithLabelValues(resource, operation).Inc()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}
