package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal tracks jobs by terminal outcome (completed, failed)
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_jobs_total",
			Help: "Total number of lead generation jobs by outcome",
		},
		[]string{"outcome"},
	)

	// JobsInflight tracks jobs currently in processing state
	JobsInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadgen_jobs_inflight",
			Help: "Number of jobs currently processing",
		},
	)

	// GenerateCallsTotal tracks calls to the generation provider
	GenerateCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_generate_calls_total",
			Help: "Total number of generation provider calls",
		},
		[]string{"provider"},
	)

	// GenerateErrorsTotal tracks provider errors by classification
	GenerateErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_generate_errors_total",
			Help: "Total number of generation provider errors",
		},
		[]string{"provider", "class"},
	)

	// RetryAttemptsTotal tracks backoff retries by error class
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_retry_attempts_total",
			Help: "Total number of retry attempts after transient errors",
		},
		[]string{"class"},
	)

	// GenerateLatency tracks generation call latency
	GenerateLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadgen_generate_latency_seconds",
			Help:    "Generation provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// ScrapeErrorsTotal tracks per-company scraping failures
	ScrapeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadgen_scrape_errors_total",
			Help: "Total number of failed website scrape attempts",
		},
	)
)
