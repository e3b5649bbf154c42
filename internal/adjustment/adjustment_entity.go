package adjustment

import (
	"time"

	"github.com/google/uuid"
)

// Adjustment is an append-only correction record. Applying one never rewrites
// the referenced payslip; it mints a new correction payslip and links back.
type Adjustment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	PayrollRunID uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null;index"`

	AdjustmentType     string    `gorm:"type:varchar(30);not null"`
	ReferencePayslipID uuid.UUID `gorm:"type:uuid;not null"`

	// Amount is signed: positive for EARNINGS, negative for DEDUCTION and
	// STATUTORY_CORRECTION. Validated at creation, trusted afterwards.
	Amount int64  `gorm:"type:bigint;not null"`
	Reason string `gorm:"type:text;not null"`

	Status    string `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	CreatedBy string `gorm:"type:varchar(64);not null"`

	ApprovedBy *string `gorm:"type:varchar(64)"`
	ApprovedAt *time.Time
	RejectedAt *time.Time

	AppliedRunID     *uuid.UUID `gorm:"type:uuid"`
	AppliedPayslipID *uuid.UUID `gorm:"type:uuid"`
	AppliedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
