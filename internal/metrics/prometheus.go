// Package metrics provides Prometheus metrics collection for SafeTrail services
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "safetrail"

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"service", "method", "path"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
		[]string{"service"},
	)
)

// Risk assessment metrics
var (
	riskAssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_assessments_total",
			Help:      "Total number of risk assessments by resulting level",
		},
		[]string{"level"}, // low, medium, high, critical
	)

	riskScoreHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of assessed risk scores",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	operationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Total number of failed risk and pattern operations",
		},
		[]string{"operation", "code"},
	)

	trainRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "train_requests_total",
			Help:      "Total number of acknowledged model training requests",
		},
	)
)

// Pattern analysis metrics
var (
	patternAnalysesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pattern_analyses_total",
			Help:      "Total number of alert pattern analyses",
		},
	)

	alertsAnalyzed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alerts_per_analysis",
			Help:      "Number of alerts submitted per pattern analysis",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
		},
	)

	hotspotsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hotspots_per_analysis",
			Help:      "Number of hotspots found per pattern analysis",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	skippedTimestampsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_timestamps_skipped_total",
			Help:      "Alerts whose timestamp could not be parsed and were left out of time patterns",
		},
	)
)

// Middleware returns a Gin middleware that records HTTP metrics.
// serviceName is used as the "service" label on all metrics.
func Middleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		// Skip metrics endpoint itself to avoid recursion
		if path == "/metrics" {
			c.Next()
			return
		}

		httpRequestsInFlight.WithLabelValues(serviceName).Inc()
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		httpRequestsTotal.WithLabelValues(serviceName, method, path, status).Inc()
		httpRequestDuration.WithLabelValues(serviceName, method, path).Observe(duration)
		httpRequestsInFlight.WithLabelValues(serviceName).Dec()
	}
}

// Handler returns a gin.HandlerFunc that serves Prometheus metrics.
// Register this on the "/metrics" route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordRiskAssessment records the level and score of a completed assessment
func RecordRiskAssessment(level string, score float64) {
	riskAssessmentsTotal.WithLabelValues(level).Inc()
	riskScoreHistogram.Observe(score)
}

// RecordPatternAnalysis records a completed pattern analysis
func RecordPatternAnalysis(alerts, hotspots, skippedTimestamps int) {
	patternAnalysesTotal.Inc()
	alertsAnalyzed.Observe(float64(alerts))
	hotspotsDetected.Observe(float64(hotspots))
	if skippedTimestamps > 0 {
		skippedTimestampsTotal.Add(float64(skippedTimestamps))
	}
}

// RecordOperationError records a failed operation by error code
func RecordOperationError(operation, code string) {
	operationErrorsTotal.WithLabelValues(operation, code).Inc()
}

// RecordTrainRequest records an acknowledged training request
func RecordTrainRequest() {
	trainRequestsTotal.Inc()
}
