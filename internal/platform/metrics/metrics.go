package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	IssuancesCreated     prometheus.Counter
	CertificateConflicts prometheus.Counter
	CertificatesRendered prometheus.Counter
	ShareholdersCreated  prometheus.Counter
	AuditEventsRecorded  prometheus.Counter
	Logins               *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IssuancesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "capledger_issuances_created_total",
			Help: "Total number of share issuances committed to the ledger",
		}),
		CertificateConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "capledger_certificate_conflicts_total",
			Help: "Total number of certificate number collisions retried by the sequencer",
		}),
		CertificatesRendered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "capledger_certificates_rendered_total",
			Help: "Total number of certificate rendering payloads served",
		}),
		ShareholdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "capledger_shareholders_created_total",
			Help: "Total number of shareholder accounts onboarded",
		}),
		AuditEventsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "capledger_audit_events_total",
			Help: "Total number of audit events recorded",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "capledger_logins_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementIssuancesCreated() {
	if m == nil {
		return
	}
	m.IssuancesCreated.Inc()
}

func (m *Metrics) IncrementCertificateConflicts() {
	if m == nil {
		return
	}
	m.CertificateConflicts.Inc()
}

func (m *Metrics) IncrementCertificatesRendered() {
	if m == nil {
		return
	}
	m.CertificatesRendered.Inc()
}

func (m *Metrics) IncrementShareholdersCreated() {
	if m == nil {
		return
	}
	m.ShareholdersCreated.Inc()
}

func (m *Metrics) IncrementAuditEvents() {
	if m == nil {
		return
	}
	m.AuditEventsRecorded.Inc()
}

func (m *Metrics) IncrementLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}
