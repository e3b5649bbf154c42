package settlement

type ComputeFinalPayRequest struct {
	EmployeeID    string  `json:"employee_id" binding:"required,uuid"`
	ResignedAt    string  `json:"resigned_at" binding:"required"`
	UnpaidOTHours float64 `json:"unpaid_ot_hours"`
	LeaveDays     float64 `json:"leave_days"`
	LoanBalance   int64   `json:"loan_balance"`
	MonthlySalary *int64  `json:"monthly_salary"`
}

type FinalPayResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	ResignedAt string `json:"resigned_at"`

	MonthlySalary        int64 `json:"monthly_salary"`
	DailyRate            int64 `json:"daily_rate"`
	ProRatedSalary       int64 `json:"pro_rated_salary"`
	UnpaidOvertime       int64 `json:"unpaid_ot"`
	LeavePayout          int64 `json:"leave_payout"`
	RemainingLoanBalance int64 `json:"remaining_loan_balance"`
	GrossFinalPay        int64 `json:"gross_final_pay"`
	NetFinalPay          int64 `json:"net_final_pay"`

	Status    string `json:"status"`
	PayslipID string `json:"payslip_id"`
	CreatedAt string `json:"created_at"`
}

type GenerateThirteenthMonthRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
	PayoutDate  string   `json:"payout_date"`
}

type ThirteenthMonthItem struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	MonthsWorked int    `json:"months_worked"`
	Payout       int64  `json:"payout"`
	PayslipID    string `json:"payslip_id"`
}

type ThirteenthMonthResponse struct {
	PayoutDate string                `json:"payout_date"`
	Generated  []ThirteenthMonthItem `json:"generated"`
	Skipped    int                   `json:"skipped"`
}
