package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for AuthAttempts.
const (
	OutcomeNewUser       = "new_user"
	OutcomeExistingUser  = "existing_user"
	OutcomeMissingToken  = "missing_token"
	OutcomeUpstreamError = "upstream_error"
	OutcomeStoreError    = "store_error"
)

var (
	AuthAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lastfm_auth_attempts_total",
		Help: "Completed Last.fm login callbacks by outcome",
	}, []string{"outcome"})

	UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lastfm_auth_upstream_latency_seconds",
		Help:    "Latency of Last.fm API calls made during login",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"method"})
)

// Register registers the auth metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AuthAttempts, UpstreamLatency} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
