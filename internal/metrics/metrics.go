// Package metrics expõe os contadores Prometheus da camada de proteção.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RateLimitDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cardguard_ratelimit_decisions_total",
		Help: "Total number of rate limit checks grouped by decision",
	}, []string{"decision"})
	RateLimitStoreErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cardguard_ratelimit_store_errors_total",
		Help: "Total number of record store failures that made the limiter fail open",
	}, []string{"operation"})
	RateLimitRecordsSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardguard_ratelimit_records_swept_total",
		Help: "Total number of expired rate limit records removed by cleanup",
	})
	GuardInstalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cardguard_guard_installs_total",
		Help: "Guard installation outcomes grouped by guard and status",
	}, []string{"guard", "status"})
	GuardInterventions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cardguard_guard_interventions_total",
		Help: "Number of times an installed guard suppressed or rejected an action",
	}, []string{"guard"})
	SanitizedInputs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardguard_sanitized_inputs_total",
		Help: "Number of sanitize calls whose output differed from the input",
	})
)

func init() {
	prometheus.MustRegister(
		RateLimitDecisions,
		RateLimitStoreErrors,
		RateLimitRecordsSwept,
		GuardInstalls,
		GuardInterventions,
		SanitizedInputs,
	)
}

// Handler devolve o handler HTTP do endpoint /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
