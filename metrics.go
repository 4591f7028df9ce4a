package gatehouse

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the core exposes. Audit-write
// failures in particular must stay observable: the authorizer swallows them
// so a decision never fails on audit, and the counter is the only trace.
type Metrics struct {
	Decisions         *prometheus.CounterVec
	AuditWriteFailure prometheus.Counter
	BootstrapRuns     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to use the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_decisions_total",
				Help: "Authorization decisions by outcome and credential path.",
			},
			[]string{"status", "path"},
		),
		AuditWriteFailure: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_audit_write_failures_total",
				Help: "Audit events that could not be persisted.",
			},
		),
		BootstrapRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_bootstrap_runs_total",
				Help: "Tenant policy bootstrap runs by tenant level.",
			},
			[]string{"level"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Decisions, m.AuditWriteFailure, m.BootstrapRuns)
	}
	return m
}

func (m *Metrics) observeDecision(status Status, path string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(string(status), path).Inc()
}

func (m *Metrics) observeAuditFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailure.Inc()
}

func (m *Metrics) observeBootstrap(level TenantLevel) {
	if m == nil {
		return
	}
	m.BootstrapRuns.WithLabelValues(string(level)).Inc()
}
