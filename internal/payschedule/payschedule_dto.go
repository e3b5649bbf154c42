package payschedule

type UpdatePayScheduleRequest struct {
	Frequency string `json:"frequency" binding:"required"`
	CutoffDay int    `json:"cutoff_day" binding:"required,min=1,max=31"`
	PayDay    int    `json:"pay_day" binding:"required,min=1,max=31"`
}

type PayScheduleResponse struct {
	Frequency string `json:"frequency"`
	CutoffDay int    `json:"cutoff_day"`
	PayDay    int    `json:"pay_day"`
	UpdatedAt string `json:"updated_at"`
}
