// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ComparablesValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_comparables_validated_total",
			Help: "Comparables validated, by outcome (valid, invalid)",
		},
		[]string{"outcome"},
	)

	ComparablesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "valuation_comparables_scored_total",
			Help: "Comparables run through quality scoring and price adjustment",
		},
	)

	MarketValuesCalculated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "valuation_market_values_calculated_total",
			Help: "Market values computed from a comparable set",
		},
	)

	ConfidenceLevel = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "valuation_confidence_level",
			Help:    "Confidence level of computed market values",
			Buckets: []float64{20, 40, 60, 70, 80, 90, 95},
		},
	)

	UndervaluedAppraisals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "valuation_undervalued_appraisals_total",
			Help: "Market analyses where the market value exceeded the insurance value",
		},
	)

	NoticesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_notices_total",
			Help: "Valuation notices by channel and status",
		},
		[]string{"channel", "status"},
	)
)

// TrackJob marks a job of taskType active and returns a func that records its
// duration and outcome. errorCode is empty on success.
func TrackJob(taskType string) func(errorCode string) {
	start := time.Now()
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return func(errorCode string) {
		WorkerJobsActive.WithLabelValues(taskType).Dec()
		WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		if errorCode == "" {
			WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			return
		}
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
	}
}
