package account

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	signupsTotal = registerCollector(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accountd",
		Subsystem: "auth",
		Name:      "signups_total",
		Help:      "Accounts created, by sign-in channel.",
	}, []string{"channel"}))

	signinsTotal = registerCollector(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accountd",
		Subsystem: "auth",
		Name:      "signins_total",
		Help:      "Credential pairs issued, by method.",
	}, []string{"method"}))

	refreshesTotal = registerCollector(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "accountd",
		Subsystem: "auth",
		Name:      "token_refreshes_total",
		Help:      "Access tokens minted through the refresh flow.",
	}))

	conflictsTotal = registerCollector(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "accountd",
		Subsystem: "auth",
		Name:      "identity_conflicts_total",
		Help:      "Sign-ins rejected because the identity resolved to multiple accounts.",
	}))
)

func registerCollector[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}
