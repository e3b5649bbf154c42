package events

import "time"

const PayrollRunLifecycleTopic = "payroll.run.lifecycle.v1"

const (
	PayrollRunLocked    = "payroll_run_locked"
	PayrollRunPublished = "payroll_run_published"
	PayrollRunPaid      = "payroll_run_paid"
)

type PayrollRunLifecycleEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	RunID       string    `json:"run_id"`
	PeriodLabel string    `json:"period_label"`
	OccurredAt  time.Time `json:"occurred_at"`
}
