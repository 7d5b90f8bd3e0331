package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "musicatlas"

// Metrics exposes the Prometheus collectors shared by the catalog, media and HTTP layers.
// A nil *Metrics records nothing.
type Metrics struct {
	mediaOps      *prometheus.CounterVec
	mediaDuration *prometheus.HistogramVec
	mediaBytes    prometheus.Counter
	catalogOps    *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	gatherer      prometheus.Gatherer
}

// New registers the collectors with reg, reusing collectors that are already registered.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		mediaOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "operations_total",
			Help:      "Media uploads and deletes by result.",
		}, []string{"operation", "result"}),
		mediaDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "operation_duration_seconds",
			Help:      "Time spent talking to the media host.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		mediaBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "uploaded_bytes_total",
			Help:      "Bytes accepted by the media host.",
		}),
		catalogOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "operations_total",
			Help:      "Catalog add, update and delete calls by entity kind and result.",
		}, []string{"kind", "op", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		gatherer: reg,
	}

	m.mediaOps = register(reg, m.mediaOps)
	m.mediaDuration = register(reg, m.mediaDuration)
	m.mediaBytes = register(reg, m.mediaBytes)
	m.catalogOps = register(reg, m.catalogOps)
	m.httpRequests = register(reg, m.httpRequests)
	m.httpDuration = register(reg, m.httpDuration)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveMedia records one media operation.
func (m *Metrics) ObserveMedia(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mediaOps.WithLabelValues(operation, result(err)).Inc()
	m.mediaDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// AddUploadedBytes counts bytes stored by the media host.
func (m *Metrics) AddUploadedBytes(n int) {
	if m == nil {
		return
	}
	m.mediaBytes.Add(float64(n))
}

// ObserveCatalog records one coordinator call.
func (m *Metrics) ObserveCatalog(kind, op string, err error) {
	if m == nil {
		return
	}
	m.catalogOps.WithLabelValues(kind, op, result(err)).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, code).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
