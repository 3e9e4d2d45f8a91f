package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Workflow outcomes.
const (
	OutcomeOK       = "ok"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

type WorkflowMetrics struct {
	runs *prometheus.CounterVec
}

func NewWorkflowMetrics(reg *prometheus.Registry) *WorkflowMetrics {
	if reg == nil {
		return nil
	}
	m := &WorkflowMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_runs_total",
				Help:      "Total number of workflow runs by outcome.",
			},
			[]string{"workflow", "outcome"},
		),
	}
	reg.MustRegister(m.runs)
	return m
}

func (m *WorkflowMetrics) Observe(workflow, outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(workflow, outcome).Inc()
}
