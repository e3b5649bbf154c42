package settlement

import (
	"time"

	"github.com/google/uuid"
)

const StatusComputed = "COMPUTED"

// FinalPayComputation stores a separating employee's one-time settlement.
// The unique index on employee_id is the idempotency guarantee: a second
// computation for the same employee hits the constraint and the caller gets
// the first result back.
type FinalPayComputation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	ResignedAt time.Time `gorm:"type:date;not null"`

	MonthlySalary        int64 `gorm:"type:bigint;not null"`
	DailyRate            int64 `gorm:"type:bigint;not null"`
	ProRatedSalary       int64 `gorm:"type:bigint;not null"`
	UnpaidOvertime       int64 `gorm:"type:bigint;not null;default:0"`
	LeavePayout          int64 `gorm:"type:bigint;not null;default:0"`
	RemainingLoanBalance int64 `gorm:"type:bigint;not null;default:0"`
	GrossFinalPay        int64 `gorm:"type:bigint;not null"`
	NetFinalPay          int64 `gorm:"type:bigint;not null"`

	Status    string    `gorm:"type:varchar(20);not null;default:'COMPUTED'"`
	PayslipID uuid.UUID `gorm:"type:uuid;not null"`

	CreatedAt time.Time
}

func (FinalPayComputation) TableName() string {
	return "final_pay_computations"
}
