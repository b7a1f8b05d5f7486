package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PgErrCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labloans",
		Name:      "pg_err_count",
	}, []string{"method"})
	PgDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "labloans",
		Name:      "pg_duration",
	}, []string{"method"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labloans",
		Name:      "http_requests_total",
	}, []string{"route", "method", "code"})
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "labloans",
		Name:      "http_duration_seconds",
	}, []string{"route", "method"})

	// LifecycleTransitions counts requests entering a status, creation included.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labloans",
		Name:      "lifecycle_transitions_total",
	}, []string{"kind", "status"})
)
