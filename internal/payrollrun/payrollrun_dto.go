package payrollrun

type CreateDraftRunRequest struct {
	Date       string   `json:"date" binding:"required"`
	PayslipIDs []string `json:"payslip_ids"`
	RunType    string   `json:"run_type"`
}

type PolicySnapshotResponse struct {
	RuleSetVersion         string `json:"rule_set_version"`
	TaxTableVersion        string `json:"tax_table_version"`
	SocialInsuranceVersion string `json:"social_insurance_version"`
	HealthInsuranceVersion string `json:"health_insurance_version"`
	HousingFundVersion     string `json:"housing_fund_version"`
	HolidayCalendarVersion string `json:"holiday_calendar_version"`
	FormulaVersion         string `json:"formula_version"`
	LockedBy               string `json:"locked_by"`
}

type PayrollRunResponse struct {
	ID          string `json:"id"`
	PeriodLabel string `json:"period_label"`
	RunType     string `json:"run_type"`
	Status      string `json:"status"`
	Locked      bool   `json:"locked"`

	LockedAt    *string `json:"locked_at,omitempty"`
	PublishedAt *string `json:"published_at,omitempty"`
	PaidAt      *string `json:"paid_at,omitempty"`

	Policy     *PolicySnapshotResponse `json:"policy_snapshot,omitempty"`
	PayslipIDs []string                `json:"payslip_ids"`

	CreatedAt string `json:"created_at"`
}
