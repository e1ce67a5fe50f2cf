package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records outcomes of payment gateway charges.
type PaymentMetrics struct {
	duration *prometheus.HistogramVec
	approved *prometheus.CounterVec
	declined *prometheus.CounterVec
	failed   *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_charge_duration_seconds",
		Help:    "Duration of payment gateway charges in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway"})
	approved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_charges_approved",
		Help: "Approved payment charges.",
	}, []string{"gateway"})
	declined := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_charges_declined",
		Help: "Declined payment charges.",
	}, []string{"gateway"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_charges_failed",
		Help: "Payment charges rejected before reaching the gateway.",
	}, []string{"gateway"})
	reg.MustRegister(duration, approved, declined, failed)
	return &PaymentMetrics{
		duration: duration,
		approved: approved,
		declined: declined,
		failed:   failed,
	}
}

// ObserveDuration records the duration of a charge against the named gateway.
func (p *PaymentMetrics) ObserveDuration(gateway string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(gateway)).Observe(duration.Seconds())
}

// IncApproved increments the approved counter for the named gateway.
func (p *PaymentMetrics) IncApproved(gateway string) {
	if p == nil || p.approved == nil {
		return
	}
	p.approved.WithLabelValues(normalizeLabel(gateway)).Inc()
}

// IncDeclined increments the declined counter for the named gateway.
func (p *PaymentMetrics) IncDeclined(gateway string) {
	if p == nil || p.declined == nil {
		return
	}
	p.declined.WithLabelValues(normalizeLabel(gateway)).Inc()
}

// IncFailed increments the failed counter for the named gateway.
func (p *PaymentMetrics) IncFailed(gateway string) {
	if p == nil || p.failed == nil {
		return
	}
	p.failed.WithLabelValues(normalizeLabel(gateway)).Inc()
}

func normalizeLabel(gateway string) string {
	if gateway == "" {
		return "unknown"
	}
	return gateway
}
