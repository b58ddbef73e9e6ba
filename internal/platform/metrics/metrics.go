package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the broker.
type Metrics struct {
	VerificationsStarted   prometheus.Counter
	VerificationsCompleted prometheus.Counter
	VerificationsFailed    prometheus.Counter
	StatusChecks           prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VerificationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_verifications_started_total",
			Help: "Verification attempts begun against the identity provider",
		}),
		VerificationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_verifications_completed_total",
			Help: "Verification attempts that produced a stored record",
		}),
		VerificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_verifications_failed_total",
			Help: "Verification attempts abandoned before a record was written",
		}),
		StatusChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agegate_status_checks_total",
			Help: "Verification status lookups from the storefront",
		}),
	}
}

// NewForTest creates metrics on a private registry so parallel tests do not
// collide on the default registerer.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		VerificationsStarted:   factory.NewCounter(prometheus.CounterOpts{Name: "agegate_verifications_started_total"}),
		VerificationsCompleted: factory.NewCounter(prometheus.CounterOpts{Name: "agegate_verifications_completed_total"}),
		VerificationsFailed:    factory.NewCounter(prometheus.CounterOpts{Name: "agegate_verifications_failed_total"}),
		StatusChecks:           factory.NewCounter(prometheus.CounterOpts{Name: "agegate_status_checks_total"}),
	}
}
