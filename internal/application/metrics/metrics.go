package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the intake workflow.
type Metrics struct {
	// New applications by variant
	Submissions *prometheus.CounterVec

	// Workflow transitions by from/to status
	StatusTransitions *prometheus.CounterVec

	// Token-scoped document resubmissions, end to end
	RedeemLatency prometheus.Histogram

	// Resubmission tokens rejected at the door
	TokenRejections prometheus.Counter
}

// New creates a Metrics instance with all intake metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "posintake_submissions_total",
			Help: "Total accepted applications by variant",
		}, []string{"variant"}),

		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "posintake_status_transitions_total",
			Help: "Workflow status transitions by from and to status",
		}, []string{"from", "to"}),

		RedeemLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "posintake_redeem_duration_seconds",
			Help:    "Duration of resubmission token redemptions including blob writes",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		TokenRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "posintake_token_rejections_total",
			Help: "Resubmission tokens rejected as invalid or expired",
		}),
	}
}

// IncrementSubmission records an accepted application.
func (m *Metrics) IncrementSubmission(variant string) {
	if m != nil {
		m.Submissions.WithLabelValues(variant).Inc()
	}
}

// IncrementTransition records a workflow status transition.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(from, to).Inc()
	}
}

// ObserveRedeemLatency records the duration of a redemption.
func (m *Metrics) ObserveRedeemLatency(d time.Duration) {
	if m != nil {
		m.RedeemLatency.Observe(d.Seconds())
	}
}

// IncrementTokenRejection records a rejected resubmission token.
func (m *Metrics) IncrementTokenRejection() {
	if m != nil {
		m.TokenRejections.Inc()
	}
}
