package payschedule

import "time"

const (
	FrequencyMonthly     = "MONTHLY"
	FrequencySemiMonthly = "SEMI_MONTHLY"
)

// singletonID keys the one process-wide schedule row; updates are upserts
// against it.
const singletonID = 1

// PayScheduleConfig drives run-date bucketing: which day closes a cutoff and
// which day payslips are issued on.
type PayScheduleConfig struct {
	ID        int    `gorm:"primaryKey"`
	Frequency string `gorm:"type:varchar(20);not null;default:'MONTHLY'"`
	CutoffDay int    `gorm:"not null;default:25"`
	PayDay    int    `gorm:"not null;default:30"`

	UpdatedAt time.Time
}

func (PayScheduleConfig) TableName() string {
	return "pay_schedule_configs"
}
