// Package metrics provides Prometheus instrumentation for the decision
// engine and the enforcement front end.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DecisionsTotal counts scoring passes by resulting decision.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginguard",
			Name:      "decisions_total",
			Help:      "Total risk decisions computed, by outcome.",
		},
		[]string{"decision"},
	)

	// ScoringDuration observes the latency of a full scoring pass
	// (ledger append through cache upsert).
	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "loginguard",
			Name:      "scoring_duration_seconds",
			Help:      "Duration of a full log-and-decide pass.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ClassifierAllowAll is 1 when no model is configured and the engine
	// is passing every address through as allow.
	ClassifierAllowAll = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "loginguard",
			Name:      "classifier_allow_all",
			Help:      "1 when the classifier is running in allow-all degraded mode.",
		},
	)

	// GuardFailuresTotal counts front-end calls to the decision engine
	// that failed open, by reason.
	GuardFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginguard",
			Name:      "guard_failures_total",
			Help:      "Decision engine calls that failed open at the front end.",
		},
		[]string{"reason"},
	)
)

// Register installs the decision engine's collectors on the default
// registry. Call once at startup.
func Register() {
	prometheus.MustRegister(
		DecisionsTotal,
		ScoringDuration,
		ClassifierAllowAll,
	)
}

// RegisterFrontend installs the login portal's collectors. The portal only
// owns the guard client counter; the scoring collectors live in the engine
// process.
func RegisterFrontend() {
	prometheus.MustRegister(GuardFailuresTotal)
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
