package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washboard",
			Name:      "transitions_total",
			Help:      "Booking stage transitions by source, destination and outcome.",
		},
		[]string{"from", "to", "outcome"},
	)

	stageLoadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washboard",
			Name:      "stage_load_failures_total",
			Help:      "Failed stage collection fetches by status.",
		},
		[]string{"status"},
	)

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washboard",
			Name:      "api_requests_total",
			Help:      "Backend API requests by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(transitions, stageLoadFailures, apiRequests)
	})
}

// IncTransition counts one transition attempt outcome.
func IncTransition(from, to, outcome string) {
	transitions.WithLabelValues(from, to, outcome).Inc()
}

// IncStageLoadFailure counts a failed collection fetch.
func IncStageLoadFailure(status string) {
	stageLoadFailures.WithLabelValues(status).Inc()
}

// IncAPIRequest counts one client facade request.
func IncAPIRequest(endpoint, result string) {
	apiRequests.WithLabelValues(endpoint, result).Inc()
}
