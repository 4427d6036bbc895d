package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the publication pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	publicationsTotal prometheus.Counter
	dispatchFailures  *prometheus.CounterVec
	reconcileRetries  prometheus.Counter
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

	publicationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "event_publications_total",
		Help: "Events successfully created by the publication pipeline",
	})

	dispatchFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_dispatch_failures_total",
		Help: "Announcement sends that failed, by channel",
	}, []string{"channel"})

	reconcileRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "event_reconcile_retries_total",
		Help: "Message-id reconciliation writes that had to be retried",
	})

	registry.MustRegister(requestDuration, requestTotal, publicationsTotal, dispatchFailures, reconcileRetries)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		publicationsTotal: publicationsTotal,
		dispatchFailures:  dispatchFailures,
		reconcileRetries:  reconcileRetries,
	}
}

// Handler exposes the scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// PublicationCreated counts a successfully created event record.
func (s *MetricsService) PublicationCreated() {
	if s == nil {
		return
	}
	s.publicationsTotal.Inc()
}

// DispatchFailed counts a failed channel send.
func (s *MetricsService) DispatchFailed(channel string) {
	if s == nil {
		return
	}
	s.dispatchFailures.WithLabelValues(channel).Inc()
}

// ReconcileRetryScheduled counts a deferred message-id write.
func (s *MetricsService) ReconcileRetryScheduled() {
	if s == nil {
		return
	}
	s.reconcileRetries.Inc()
}
