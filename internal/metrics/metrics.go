// Package metrics exposes Prometheus collectors for the curio service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	submissionsTotal           *prometheus.CounterVec
	extractionsTotal           *prometheus.CounterVec
	synthesisFailuresTotal     prometheus.Counter
	publishDurationSeconds     prometheus.Histogram
	rateLimitDelaysSeconds     prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Submission outcome labels.
const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		submissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curio_submissions_total",
				Help: "Total number of submissions processed, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		extractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curio_extractions_total",
				Help: "Total number of extraction attempts, labeled by category and outcome.",
			},
			[]string{"category", "outcome"},
		)

		synthesisFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "curio_synthesis_failures_total",
				Help: "Total number of unusable completion responses.",
			},
		)

		publishDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "curio_publish_duration_seconds",
				Help:    "Histogram of forum topic creation latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "curio_rate_limit_delays_seconds",
				Help:    "Histogram of backfill pacing waits.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSubmission increments the submission counter for one processed item.
func ObserveSubmission(source, outcome string) {
	submissionsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveExtraction increments the extraction counter.
func ObserveExtraction(category, outcome string) {
	extractionsTotal.WithLabelValues(category, outcome).Inc()
}

// ObserveSynthesisFailure increments the synthesis failure counter.
func ObserveSynthesisFailure() {
	synthesisFailuresTotal.Inc()
}

// ObservePublish records the duration of a forum topic creation.
func ObservePublish(duration time.Duration) {
	publishDurationSeconds.Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a pacing wait.
func ObserveRateLimitDelay(duration time.Duration) {
	rateLimitDelaysSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
