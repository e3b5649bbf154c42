package payslip

import (
	"time"

	"github.com/google/uuid"
)

// Payslip is one employee's pay statement for one period. Rows are append-only:
// lifecycle operations stamp timestamps and advance status, corrections mint a
// brand-new CORRECTION row, and nothing is ever physically deleted outside the
// demo reset path.
type Payslip struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_payslips_employee"`

	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`

	// Financials are int64 in whole currency units to avoid floating error.
	// NetPay always equals GrossPay + Allowances - TotalDeductions(); it is
	// fixed at creation and once the slip is PAID every monetary field is
	// frozen (only signature/acknowledgement metadata may still change).
	GrossPay        int64 `gorm:"type:bigint;not null;default:0"`
	Allowances      int64 `gorm:"type:bigint;not null;default:0"`
	SocialInsurance int64 `gorm:"type:bigint;not null;default:0"`
	HealthInsurance int64 `gorm:"type:bigint;not null;default:0"`
	HousingFund     int64 `gorm:"type:bigint;not null;default:0"`
	WithholdingTax  int64 `gorm:"type:bigint;not null;default:0"`
	OtherDeductions int64 `gorm:"type:bigint;not null;default:0"`
	LoanRepayment   int64 `gorm:"type:bigint;not null;default:0"`
	NetPay          int64 `gorm:"type:bigint;not null;default:0"`

	IssuedAt time.Time `gorm:"type:date;not null;index:idx_payslips_issued_at"`
	Status   string    `gorm:"type:varchar(20);not null;default:'ISSUED';index:idx_payslips_status"`

	// Kind tags the correction variant structurally instead of overloading the
	// regular shape: CORRECTION rows always carry AdjustmentID, others never do.
	Kind         string     `gorm:"type:varchar(20);not null;default:'REGULAR'"`
	AdjustmentID *uuid.UUID `gorm:"type:uuid;index"`

	ConfirmedAt    *time.Time
	PublishedAt    *time.Time
	PaidAt         *time.Time
	SignedAt       *time.Time
	AcknowledgedAt *time.Time
	AcknowledgedBy *string `gorm:"type:varchar(64)"`

	PaymentMethod     *string `gorm:"type:varchar(40)"`
	PaymentReference  *string `gorm:"type:varchar(80)"`
	SignatureArtifact *string `gorm:"type:text"`
	Notes             *string `gorm:"type:text"`

	DocumentURL         *string `gorm:"type:text"`
	DocumentGeneratedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Payslip) TotalDeductions() int64 {
	return p.SocialInsurance + p.HealthInsurance + p.HousingFund +
		p.WithholdingTax + p.OtherDeductions + p.LoanRepayment
}
