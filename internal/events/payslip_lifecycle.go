package events

import "time"

const PayslipLifecycleTopic = "payroll.payslip.lifecycle.v1"

const (
	PayslipIssued    = "payslip_issued"
	PayslipPublished = "payslip_published"
	PayslipPaid      = "payslip_paid"
)

type PayslipLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	PayslipID  string    `json:"payslip_id"`
	EmployeeID string    `json:"employee_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
