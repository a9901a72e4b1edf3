package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CourseOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "courses", Name: "operations_total", Help: "Number of course operations by operation and result."},
		[]string{"op", "result"},
	)
	CourseOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "courses", Name: "operation_duration_seconds", Help: "Latency of course store round-trips.", Buckets: prometheus.DefBuckets},
		[]string{"op"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "courses", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "courses", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

// Result labels for CourseOperations.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(CourseOperations)
	reg.MustRegister(CourseOperationDuration)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
