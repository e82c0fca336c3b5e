package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the gateway.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	listFetches      *prometheus.HistogramVec
	staleResponses   *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	overviewDrift    *prometheus.CounterVec
}

// NewMetricsService registers the gateway collectors on a private registry.
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

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "enterprise_api_request_duration_seconds",
		Help:    "Duration of calls to the enterprise API",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	listFetches := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "list_fetch_duration_seconds",
		Help:    "Duration of paginated list fetches by resource and outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "outcome"})

	staleResponses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "list_stale_responses_total",
		Help: "List responses discarded because a newer fetch superseded them",
	}, []string{"resource"})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_sessions_active",
		Help: "Mounted console sessions",
	})

	overviewDrift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overview_negative_counts_total",
		Help: "Local overview decrements that produced a negative count",
	}, []string{"channel"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, cacheLatency, cacheWrite, cacheHits, cacheMisses, listFetches, staleResponses, activeSessions, overviewDrift, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		listFetches:      listFetches,
		staleResponses:   staleResponses,
		activeSessions:   activeSessions,
		overviewDrift:    overviewDrift,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records inbound request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveUpstreamRequest records a call to the enterprise API.
func (m *MetricsService) ObserveUpstreamRequest(method, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(method, endpoint, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveListFetch records a paginated fetch. outcome is one of ok, error, stale.
func (m *MetricsService) ObserveListFetch(resource, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.listFetches.WithLabelValues(resource, outcome).Observe(duration.Seconds())
	if outcome == fetchOutcomeStale {
		m.staleResponses.WithLabelValues(resource).Inc()
	}
}

// SessionMounted increments the active session gauge.
func (m *MetricsService) SessionMounted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionUnmounted decrements the active session gauge.
func (m *MetricsService) SessionUnmounted() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// RecordNegativeOverview counts decrements that drove a badge below zero.
func (m *MetricsService) RecordNegativeOverview(channel string) {
	if m == nil {
		return
	}
	m.overviewDrift.WithLabelValues(channel).Inc()
}
