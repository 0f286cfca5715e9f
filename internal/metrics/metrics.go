// Package metrics holds the Prometheus collectors for the auth and match
// services. They register on the default registry and are served by
// promhttp at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeDenied    = "denied"
	OutcomeError     = "error"
)

var (
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omok_registrations_total",
		Help: "Registration attempts by outcome",
	}, []string{"outcome"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omok_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	tokenRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "omok_token_rejections_total",
		Help: "Session tokens that failed validation",
	})

	matchesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omok_matches_recorded_total",
		Help: "Match record attempts by outcome",
	}, []string{"outcome"})

	historyReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omok_history_reads_total",
		Help: "Match history reads by outcome",
	}, []string{"outcome"})

	// passwordHashDuration tracks hasher cost; a jump means the work factor
	// changed or the host is starved.
	passwordHashDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "omok_password_hash_duration_seconds",
		Help:    "Latency of password hash and verify operations",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
)

func RecordRegistration(outcome string) { registrations.WithLabelValues(outcome).Inc() }

func RecordLogin(outcome string) { logins.WithLabelValues(outcome).Inc() }

func RecordTokenRejected() { tokenRejections.Inc() }

func RecordMatch(outcome string) { matchesRecorded.WithLabelValues(outcome).Inc() }

func RecordHistoryRead(outcome string) { historyReads.WithLabelValues(outcome).Inc() }

// ObservePasswordHash records the time since start.
func ObservePasswordHash(start time.Time) {
	passwordHashDuration.Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
