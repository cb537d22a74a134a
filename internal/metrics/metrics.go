// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cat_core"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	tasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_processed_total",
			Help:      "Persistence intents processed by the worker",
		},
		[]string{"type", "result"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "Time spent applying a persistence intent",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)
)

// HTTPRequestStarted marks a request in flight and returns the function
// recording its outcome.
func HTTPRequestStarted(method, route string) func(status int) {
	start := time.Now()
	httpRequestsInFlight.Inc()
	return func(status int) {
		httpRequestsInFlight.Dec()
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordTask records one processed intent
func RecordTask(taskType string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	tasksProcessedTotal.WithLabelValues(taskType, result).Inc()
	taskDuration.WithLabelValues(taskType).Observe(duration.Seconds())
}

// RegisterIntentBuffer exports the intent dispatcher buffer as gauges.
// It must be called at most once per process.
func RegisterIntentBuffer(pending func() int, dropped func() int64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "intents",
		Name:      "pending",
		Help:      "Intents waiting in the dispatcher buffer",
	}, func() float64 { return float64(pending()) })

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intents",
		Name:      "dropped_total",
		Help:      "Intents dropped because the dispatcher buffer was full",
	}, func() float64 { return float64(dropped()) })
}

var (
	qaIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qa",
			Name:      "issues_total",
			Help:      "QA issues reported by full QA runs",
		},
		[]string{"type", "severity"},
	)

	segmentsConfirmedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "segments_confirmed_total",
			Help:      "Confirmed segments, with propagated copies counted separately",
		},
		[]string{"kind"},
	)
)

// RecordQAIssue counts one reported issue
func RecordQAIssue(issueType, severity string) {
	qaIssuesTotal.WithLabelValues(issueType, severity).Inc()
}

// RecordConfirm counts a confirmed segment and the segments it propagated to
func RecordConfirm(propagated int) {
	segmentsConfirmedTotal.WithLabelValues("confirmed").Inc()
	if propagated > 0 {
		segmentsConfirmedTotal.WithLabelValues("propagated").Add(float64(propagated))
	}
}
