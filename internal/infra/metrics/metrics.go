package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIAttempts tracks every API call by operation and classified outcome
	APIAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioner_api_attempts_total",
			Help: "Total number of API call attempts",
		},
		[]string{"operation", "outcome"},
	)

	// RateLimitWait tracks how long the driver slept on rate limit responses
	RateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provisioner_rate_limit_wait_seconds",
			Help:    "Time spent waiting on rate limit responses",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// WorkUnits tracks completed work units per workflow
	WorkUnits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioner_work_units_total",
			Help: "Total number of work units driven to completion",
		},
		[]string{"workflow", "result"},
	)
)
