package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the grid session lifecycle.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	sessionsOpen    prometheus.Gauge
	sessionsTotal   prometheus.Counter
	commitsTotal    prometheus.Counter
	changesApplied  prometheus.Counter
	changesSkipped  prometheus.Counter
}

// NewMetricsService registers the collectors.
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

	sessionsOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "grid_sessions_open",
		Help: "Grid editing sessions currently held in memory",
	})

	sessionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_sessions_opened_total",
		Help: "Total grid editing sessions opened",
	})

	commitsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_commits_total",
		Help: "Total successful grid commit replays",
	})

	changesApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_changes_applied_total",
		Help: "Total staged changes applied during commits",
	})

	changesSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_changes_skipped_total",
		Help: "Total staged changes skipped as stale or invalid during commits",
	})

	registry.MustRegister(requestDuration, requestTotal, sessionsOpen, sessionsTotal, commitsTotal, changesApplied, changesSkipped)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		sessionsOpen:    sessionsOpen,
		sessionsTotal:   sessionsTotal,
		commitsTotal:    commitsTotal,
		changesApplied:  changesApplied,
		changesSkipped:  changesSkipped,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one handled HTTP request.
func (s *MetricsService) ObserveRequest(method, path, status string, duration time.Duration) {
	s.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, status).Inc()
}

// SessionOpened tracks a new grid session.
func (s *MetricsService) SessionOpened() {
	s.sessionsOpen.Inc()
	s.sessionsTotal.Inc()
}

// SessionClosed tracks an explicitly closed grid session.
func (s *MetricsService) SessionClosed() {
	s.sessionsOpen.Dec()
}

// CommitReplayed tracks one successful commit replay.
func (s *MetricsService) CommitReplayed(applied, skipped int) {
	s.commitsTotal.Inc()
	s.changesApplied.Add(float64(applied))
	s.changesSkipped.Add(float64(skipped))
}
