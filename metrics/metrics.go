// Package metrics exposes Prometheus instruments for the complaint desk.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the desk's instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Transition attempts by outcome: applied, invalid, forbidden, not_found, error
	Transitions *prometheus.CounterVec

	// Notification rows written by event type
	NotificationsCreated *prometheus.CounterVec

	// Events that produced no notification, by reason
	DispatchFailures *prometheus.CounterVec

	// Business minutes of open complaints as of the last SLA scan
	OpenBusinessMinutes *prometheus.GaugeVec

	// Complaints past the SLA threshold as of the last scan
	SLABreaches prometheus.Gauge

	HTTPDuration *prometheus.HistogramVec
}

// New registers all instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grievancedesk_transitions_total",
			Help: "Status transition attempts by outcome",
		}, []string{"outcome"}),

		NotificationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grievancedesk_notifications_created_total",
			Help: "Notification records written by event type",
		}, []string{"type"}),

		DispatchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grievancedesk_dispatch_failures_total",
			Help: "Events whose notification dispatch failed, by reason",
		}, []string{"reason"}),

		OpenBusinessMinutes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grievancedesk_open_business_minutes",
			Help: "Summed business minutes of open complaints by status",
		}, []string{"status"}),

		SLABreaches: f.NewGauge(prometheus.GaugeOpts{
			Name: "grievancedesk_sla_breaches",
			Help: "Open complaints older than the SLA threshold in business time",
		}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grievancedesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "code"}),
	}
}

// IncrementTransition records a transition attempt.
func (m *Metrics) IncrementTransition(outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(outcome).Inc()
	}
}

// AddNotifications records n notification rows of type typ.
func (m *Metrics) AddNotifications(typ string, n int) {
	if m != nil {
		m.NotificationsCreated.WithLabelValues(typ).Add(float64(n))
	}
}

// IncrementDispatchFailure records a failed or empty dispatch.
func (m *Metrics) IncrementDispatchFailure(reason string) {
	if m != nil {
		m.DispatchFailures.WithLabelValues(reason).Inc()
	}
}

// SetOpenBusinessMinutes replaces the per-status business age gauges.
func (m *Metrics) SetOpenBusinessMinutes(byStatus map[string]float64) {
	if m == nil {
		return
	}
	m.OpenBusinessMinutes.Reset()
	for status, minutes := range byStatus {
		m.OpenBusinessMinutes.WithLabelValues(status).Set(minutes)
	}
}

// SetSLABreaches records the breach count from the last scan.
func (m *Metrics) SetSLABreaches(n int) {
	if m != nil {
		m.SLABreaches.Set(float64(n))
	}
}

// ObserveHTTP records one request's latency.
func (m *Metrics) ObserveHTTP(route, code string, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(route, code).Observe(d.Seconds())
	}
}
