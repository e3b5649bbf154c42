package adjustment

type CreateAdjustmentRequest struct {
	PayrollRunID       string `json:"payroll_run_id" binding:"required,uuid"`
	EmployeeID         string `json:"employee_id" binding:"required,uuid"`
	AdjustmentType     string `json:"adjustment_type" binding:"required"`
	ReferencePayslipID string `json:"reference_payslip_id" binding:"required,uuid"`
	Amount             int64  `json:"amount" binding:"required"`
	Reason             string `json:"reason" binding:"required"`
}

type ApplyAdjustmentRequest struct {
	TargetRunID string `json:"target_run_id" binding:"required,uuid"`
}

type AdjustmentResponse struct {
	ID                 string `json:"id"`
	PayrollRunID       string `json:"payroll_run_id"`
	EmployeeID         string `json:"employee_id"`
	AdjustmentType     string `json:"adjustment_type"`
	ReferencePayslipID string `json:"reference_payslip_id"`
	Amount             int64  `json:"amount"`
	Reason             string `json:"reason"`
	Status             string `json:"status"`
	CreatedBy          string `json:"created_by"`

	ApprovedBy *string `json:"approved_by,omitempty"`
	ApprovedAt *string `json:"approved_at,omitempty"`
	RejectedAt *string `json:"rejected_at,omitempty"`

	AppliedRunID     *string `json:"applied_run_id,omitempty"`
	AppliedPayslipID *string `json:"applied_payslip_id,omitempty"`
	AppliedAt        *string `json:"applied_at,omitempty"`

	CreatedAt string `json:"created_at"`
}
