// Package metrics holds the prometheus collectors for escalation and mail.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EscalationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vital_escalations_total",
		Help: "Total number of committed escalations",
	}, []string{"type", "to_role"})
	EscalationRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vital_escalation_rejected_total",
		Help: "Total number of escalation requests refused by a rule",
	}, []string{"path", "reason"})
	EscalationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vital_escalation_errors_total",
		Help: "Total number of escalation attempts that failed with an internal error",
	}, []string{"path"})

	SweepRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vital_sweep_runs_total",
		Help: "Total number of overdue sweeps",
	})
	SweepOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vital_sweep_outcomes_total",
		Help: "Per-issue sweep outcomes",
	}, []string{"status"})

	AuthorityLookupMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vital_authority_lookup_misses_total",
		Help: "Total number of authority lookups that found no verified authority",
	}, []string{"role"})

	MailQueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vital_mail_queued_total",
		Help: "Total number of notification mails queued",
	})
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vital_mail_send_success_total",
		Help: "Total number of successful mail deliveries",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vital_mail_send_failure_total",
		Help: "Total number of failed mail delivery attempts",
	}, []string{"host"})

	EventPublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vital_event_publish_failures_total",
		Help: "Total number of escalation events that could not be published",
	})
)

func init() {
	prometheus.MustRegister(EscalationsTotal)
	prometheus.MustRegister(EscalationRejected)
	prometheus.MustRegister(EscalationErrors)
	prometheus.MustRegister(SweepRuns)
	prometheus.MustRegister(SweepOutcomes)
	prometheus.MustRegister(AuthorityLookupMisses)
	prometheus.MustRegister(MailQueued)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(EventPublishFailures)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
