package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics exported by the content store.
type Metrics struct {
	registry *prometheus.Registry

	// Blob backend metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec

	// Lifecycle metrics
	LifecycleOperationsTotal *prometheus.CounterVec
	LifecycleErrorsTotal     *prometheus.CounterVec

	// Content metrics
	VersionContentBytes prometheus.Histogram
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channelstore_storage_operations_total",
				Help: "Total blob backend operations by backend kind and operation",
			},
			[]string{"backend", "operation"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "channelstore_storage_operation_duration_seconds",
				Help:    "Blob backend operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channelstore_storage_errors_total",
				Help: "Total blob backend operation failures",
			},
			[]string{"backend", "operation"},
		),
		LifecycleOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channelstore_lifecycle_operations_total",
				Help: "Total channel/version lifecycle operations",
			},
			[]string{"operation"},
		),
		LifecycleErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channelstore_lifecycle_errors_total",
				Help: "Total channel/version lifecycle operation failures",
			},
			[]string{"operation", "category"},
		),
		VersionContentBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "channelstore_version_content_bytes",
				Help:    "Size of accepted channel version payloads",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
	}

	registry.MustRegister(
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.StorageErrorsTotal,
		m.LifecycleOperationsTotal,
		m.LifecycleErrorsTotal,
		m.VersionContentBytes,
	)

	return m
}

// ObserveStorageOp records one backend operation. Safe on a nil receiver so
// metrics stay optional for library users.
func (m *Metrics) ObserveStorageOp(backend, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StorageOperationsTotal.WithLabelValues(backend, operation).Inc()
	m.StorageOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StorageErrorsTotal.WithLabelValues(backend, operation).Inc()
	}
}

// ObserveLifecycleOp records one lifecycle operation outcome. Safe on nil.
func (m *Metrics) ObserveLifecycleOp(operation, errCategory string) {
	if m == nil {
		return
	}
	m.LifecycleOperationsTotal.WithLabelValues(operation).Inc()
	if errCategory != "" {
		m.LifecycleErrorsTotal.WithLabelValues(operation, errCategory).Inc()
	}
}

// ObserveContentSize records the size of an accepted payload. Safe on nil.
func (m *Metrics) ObserveContentSize(n int) {
	if m == nil {
		return
	}
	m.VersionContentBytes.Observe(float64(n))
}

// Handler returns the scrape handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
