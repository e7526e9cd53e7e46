package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "auth", Name: "tokens_issued_total", Help: "Number of newly minted session tokens by mode."},
		[]string{"mode"},
	)
	TokensReused = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "auth", Name: "tokens_reused_total", Help: "Number of create calls answered with an existing live token."},
		[]string{"mode"},
	)
	TokensRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "auth", Name: "tokens_revoked_total", Help: "Number of explicit token revocations."},
	)
	Verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "auth", Name: "token_verifications_total", Help: "Number of verification attempts by outcome (ok, bad_signature, expired, revoked_or_expired, tampered, error)."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "auth", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "auth", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(TokensIssued)
	reg.MustRegister(TokensReused)
	reg.MustRegister(TokensRevoked)
	reg.MustRegister(Verifications)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
