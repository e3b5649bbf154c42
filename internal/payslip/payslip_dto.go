package payslip

type DeductionFields struct {
	SocialInsurance int64 `json:"social_insurance"`
	HealthInsurance int64 `json:"health_insurance"`
	HousingFund     int64 `json:"housing_fund"`
	WithholdingTax  int64 `json:"withholding_tax"`
	Other           int64 `json:"other"`
	Loan            int64 `json:"loan"`
}

func (d DeductionFields) Sum() int64 {
	return d.SocialInsurance + d.HealthInsurance + d.HousingFund +
		d.WithholdingTax + d.Other + d.Loan
}

type IssuePayslipRequest struct {
	EmployeeID  string          `json:"employee_id" binding:"required,uuid"`
	PeriodStart string          `json:"period_start" binding:"required"`
	PeriodEnd   string          `json:"period_end" binding:"required"`
	GrossPay    int64           `json:"gross_pay"`
	Allowances  int64           `json:"allowances"`
	Deductions  DeductionFields `json:"deductions"`
	// IssuedAt defaults to today (UTC) when omitted.
	IssuedAt string  `json:"issued_at"`
	Notes    *string `json:"notes"`
	// AutoStatutory fills the statutory deduction fields from the current
	// rule set instead of taking them from the request.
	AutoStatutory bool `json:"auto_statutory"`
	// ExpectedNetPay lets the caller cross-check the derived net figure.
	ExpectedNetPay *int64 `json:"expected_net_pay"`
}

type RecordPaymentRequest struct {
	Method    string `json:"method" binding:"required"`
	Reference string `json:"reference" binding:"required"`
}

type SignPayslipRequest struct {
	SignatureArtifact string `json:"signature_artifact" binding:"required"`
}

type PayslipResponse struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	GrossPay        int64           `json:"gross_pay"`
	Allowances      int64           `json:"allowances"`
	Deductions      DeductionFields `json:"deductions"`
	TotalDeductions int64           `json:"total_deductions"`
	NetPay          int64           `json:"net_pay"`

	IssuedAt     string  `json:"issued_at"`
	Status       string  `json:"status"`
	Kind         string  `json:"kind"`
	AdjustmentID *string `json:"adjustment_id,omitempty"`

	ConfirmedAt    *string `json:"confirmed_at,omitempty"`
	PublishedAt    *string `json:"published_at,omitempty"`
	PaidAt         *string `json:"paid_at,omitempty"`
	SignedAt       *string `json:"signed_at,omitempty"`
	AcknowledgedAt *string `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string `json:"acknowledged_by,omitempty"`

	PaymentMethod    *string `json:"payment_method,omitempty"`
	PaymentReference *string `json:"payment_reference,omitempty"`
	Notes            *string `json:"notes,omitempty"`
	DocumentURL      *string `json:"document_url,omitempty"`
}
