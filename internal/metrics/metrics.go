// Package metrics exposes prometheus counters for auth outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// Logins counts login attempts by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authbridge_logins_total",
		Help: "Login attempts against the identity provider, by outcome.",
	}, []string{"outcome"})

	// TokenValidations counts bearer-token validations performed by the
	// auth middleware, by outcome.
	TokenValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authbridge_token_validations_total",
		Help: "Bearer token validations in the auth middleware, by outcome.",
	}, []string{"outcome"})

	// Refreshes counts refresh-token exchanges, by outcome.
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authbridge_token_refreshes_total",
		Help: "Refresh token exchanges against the identity provider, by outcome.",
	}, []string{"outcome"})
)
