package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	UsersRegistered     prometheus.Counter
	LoginAttempts       *prometheus.CounterVec
	CertificatesMinted  prometheus.Counter
	VerificationLookups *prometheus.CounterVec
	EmailsSent          *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New creates and registers all collectors with the given registerer. Pass
// prometheus.NewRegistry() in tests to avoid default-registry collisions.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "certmint_users_registered_total",
			Help: "Total number of users registered.",
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certmint_login_attempts_total",
			Help: "Login attempts partitioned by outcome.",
		}, []string{"outcome"}),
		CertificatesMinted: factory.NewCounter(prometheus.CounterOpts{
			Name: "certmint_certificates_minted_total",
			Help: "Total number of certificates minted.",
		}),
		VerificationLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certmint_verification_lookups_total",
			Help: "Verification resolutions partitioned by outcome.",
		}, []string{"outcome"}),
		EmailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certmint_emails_sent_total",
			Help: "Notification attempts partitioned by outcome.",
		}, []string{"outcome"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certmint_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}
