// internal/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rosterCustomersGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "primefit",
		Subsystem: "roster",
		Name:      "customers",
		Help:      "Number of roster records grouped by active status.",
	}, []string{"status"})

	rosterMutationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "primefit",
		Subsystem: "roster",
		Name:      "mutations_total",
		Help:      "Roster mutations grouped by operation and result.",
	}, []string{"op", "result"})

	loginAttemptCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "primefit",
		Name:      "login_attempts_total",
		Help:      "Login attempts grouped by result.",
	}, []string{"result"})

	panicCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "primefit",
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Recovered handler panics grouped by route.",
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(rosterCustomersGauge, rosterMutationCounter, loginAttemptCounter, panicCounter)
}

// RecordRosterSize updates the active/inactive gauges.
func RecordRosterSize(total, active int) {
	rosterCustomersGauge.WithLabelValues("active").Set(float64(active))
	rosterCustomersGauge.WithLabelValues("inactive").Set(float64(total - active))
}

// RecordMutation counts a roster mutation. result is "ok" or a short reason
// such as "not_found".
func RecordMutation(op, result string) {
	rosterMutationCounter.WithLabelValues(op, result).Inc()
}

func RecordLogin(result string) {
	loginAttemptCounter.WithLabelValues(result).Inc()
}

// RecordPanic counts a recovered panic. Unmatched routes are reported as
// "unmatched".
func RecordPanic(route string) {
	if route == "" {
		route = "unmatched"
	}
	panicCounter.WithLabelValues(route).Inc()
}
