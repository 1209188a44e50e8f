package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReprocessTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_reprocess_requests_total",
			Help: "Reprocess requests by product and result",
		},
		[]string{"product", "result"}, // ok|cached|invalid|unprocessable|unavailable|error
	)

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_dispatch_total",
			Help: "Provider dispatch attempts by outcome",
		},
		[]string{"outcome"}, // sent|provider_error|timeout|breaker_open|invalid_envelope
	)

	IdempotencyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_idempotency_total",
			Help: "Idempotency cache lookups and writes",
		},
		[]string{"result"}, // hit|miss|stored|race|error
	)

	SkippedGroupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_skipped_groups_total",
			Help: "Dispatch groups skipped because their payload could not be built",
		},
		[]string{"product"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webhook_provider_breaker_state",
			Help: "Provider circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"provider"},
	)
)

var registerOnce sync.Once

// MustRegister registers all collectors once per process; serve and worker may both call it.
func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			ReprocessTotal,
			DispatchTotal,
			IdempotencyTotal,
			SkippedGroupsTotal,
			BreakerState,
		)
	})
}
