// Package metrics exposes Prometheus counters for the request workflow.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attayyibun_info_request_events_total",
			Help: "Info request lifecycle events by outcome",
		},
		[]string{"event"}, // created, approved, denied, expired, conflict
	)

	tokenRedemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attayyibun_share_token_redemptions_total",
			Help: "Share token redemption attempts by outcome",
		},
		[]string{"outcome"}, // ok, unknown, spent
	)

	sweeperProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attayyibun_expiry_sweeper_processed_total",
			Help: "Requests transitioned to expired by the sweeper",
		},
	)
)

var initOnce sync.Once

// Init registers the workflow collectors. Must be called once at startup.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(requestEvents, tokenRedemptions, sweeperProcessed)
	})
}

// RecordRequestEvent counts an info request lifecycle event.
func RecordRequestEvent(event string) {
	requestEvents.WithLabelValues(event).Inc()
}

// RecordTokenRedemption counts a redemption attempt by outcome.
func RecordTokenRedemption(outcome string) {
	tokenRedemptions.WithLabelValues(outcome).Inc()
}

// RecordSwept counts requests expired by a sweeper pass.
func RecordSwept(n int) {
	sweeperProcessed.Add(float64(n))
}
