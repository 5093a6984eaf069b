package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the site's Prometheus collectors.
type Metrics struct {
	ContactSubmissions *prometheus.CounterVec
	SectionChanges     *prometheus.CounterVec
	ActiveSessions     prometheus.Gauge
	Requests           *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ContactSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_contact_submissions_total",
			Help: "Contact form submissions by outcome",
		}, []string{"outcome"}),
		SectionChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_nav_section_changes_total",
			Help: "Active navigation section changes by destination section",
		}, []string{"section"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_sessions_active",
			Help: "Visitor sessions currently held in memory",
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "HTTP requests by route and status class",
		}, []string{"route", "status"}),
	}
}

// RecordSubmission implements contact.Recorder.
func (m *Metrics) RecordSubmission(outcome string) {
	m.ContactSubmissions.WithLabelValues(outcome).Inc()
}

// RecordSectionChange counts a tracker moving to section.
func (m *Metrics) RecordSectionChange(section string) {
	m.SectionChanges.WithLabelValues(section).Inc()
}
