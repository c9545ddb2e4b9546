package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	wizardOutcomes  *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	wizardOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_outcomes_total",
		Help: "Terminal outcomes of registration and application wizards",
	}, []string{"flow", "outcome"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_transitions_total",
		Help: "Status transitions of applications and sessions",
	}, []string{"resource", "to"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Bulk import row outcomes",
	}, []string{"outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog cache hits",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Catalog cache misses",
	})

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestDuration,
		requestTotal,
		wizardOutcomes,
		transitions,
		importRows,
		cacheHits,
		cacheMisses,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		wizardOutcomes:  wizardOutcomes,
		transitions:     transitions,
		importRows:      importRows,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveWizardOutcome records a terminal wizard outcome.
func (s *MetricsService) ObserveWizardOutcome(flow, outcome string) {
	s.wizardOutcomes.WithLabelValues(flow, outcome).Inc()
}

// ObserveTransition records a lifecycle status transition.
func (s *MetricsService) ObserveTransition(resource, to string) {
	s.transitions.WithLabelValues(resource, to).Inc()
}

// ObserveImportRow records one bulk import row outcome.
func (s *MetricsService) ObserveImportRow(outcome string) {
	s.importRows.WithLabelValues(outcome).Inc()
}

// ObserveCacheHit records a catalog cache hit.
func (s *MetricsService) ObserveCacheHit() {
	s.cacheHits.Inc()
}

// ObserveCacheMiss records a catalog cache miss.
func (s *MetricsService) ObserveCacheMiss() {
	s.cacheMisses.Inc()
}
