package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus collectors for the session server.
type metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	connectedClients prometheus.Gauge
	eventsTotal      *prometheus.CounterVec
	surveyResponses  prometheus.Counter
}

var (
	globalMetrics     *metrics
	globalMetricsOnce sync.Once
)

func initMetrics() *metrics {
	factory := promauto.With(prometheus.DefaultRegisterer)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beamer",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "beamer",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		connectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "beamer",
			Name:      "connected_clients",
			Help:      "Number of live WebSocket connections",
		}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beamer",
			Name:      "events_total",
			Help:      "Total number of inbound events processed by the router",
		}, []string{"type"}),

		surveyResponses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "beamer",
			Name:      "survey_responses_total",
			Help:      "Total number of accepted survey responses",
		}),
	}
}

// Metrics returns middleware that records request counts and durations.
func Metrics() func(http.Handler) http.Handler {
	globalMetricsOnce.Do(func() {
		globalMetrics = initMetrics()
	})
	m := globalMetrics

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			m.requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.statusCode)).Inc()
		})
	}
}

// RecordClientConnect records a new WebSocket connection.
func RecordClientConnect() {
	if globalMetrics != nil {
		globalMetrics.connectedClients.Inc()
	}
}

// RecordClientDisconnect records a dropped WebSocket connection.
func RecordClientDisconnect() {
	if globalMetrics != nil {
		globalMetrics.connectedClients.Dec()
	}
}

// RecordEvent counts an inbound event by type.
func RecordEvent(eventType string) {
	if globalMetrics != nil {
		globalMetrics.eventsTotal.WithLabelValues(eventType).Inc()
	}
}

// RecordSurveyResponse counts an accepted survey response.
func RecordSurveyResponse() {
	if globalMetrics != nil {
		globalMetrics.surveyResponses.Inc()
	}
}
