package events

import "time"

const PayslipDocumentRequestedTopic = "payroll.payslip.document.requested.v1"

type PayslipDocumentRequestedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	PayslipID   string    `json:"payslip_id"`
	RequestedBy string    `json:"requested_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}
