package payrollrun

import (
	"time"

	"github.com/google/uuid"
)

// runNamespace seeds the deterministic run id: one pay date maps to exactly
// one run id, so concurrent lock calls for the same date collide on the
// primary key instead of creating duplicate runs.
var runNamespace = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

func RunIDForDate(periodLabel string) uuid.UUID {
	return uuid.NewSHA1(runNamespace, []byte("payroll-run:"+periodLabel))
}

// PolicySnapshot pins the statutory rule-set version identifiers in effect at
// lock time. Once the run is locked these columns are never written again, so
// a closed period's numbers stay reproducible after rule tables evolve.
type PolicySnapshot struct {
	RuleSetVersion         string `gorm:"type:varchar(40)"`
	TaxTableVersion        string `gorm:"type:varchar(40)"`
	SocialInsuranceVersion string `gorm:"type:varchar(40)"`
	HealthInsuranceVersion string `gorm:"type:varchar(40)"`
	HousingFundVersion     string `gorm:"type:varchar(40)"`
	HolidayCalendarVersion string `gorm:"type:varchar(40)"`
	FormulaVersion         string `gorm:"type:varchar(40)"`
	LockedBy               string `gorm:"type:varchar(64)"`
}

type PayrollRun struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PeriodLabel string    `gorm:"type:varchar(10);not null;uniqueIndex"`
	RunType     string    `gorm:"type:varchar(20);not null;default:'REGULAR'"`
	Status      string    `gorm:"type:varchar(20);not null;default:'DRAFT';index"`

	Locked   bool `gorm:"not null;default:false"`
	LockedAt *time.Time

	PublishedAt *time.Time
	PaidAt      *time.Time

	Policy PolicySnapshot `gorm:"embedded;embeddedPrefix:policy_"`

	Members []RunMember `gorm:"foreignKey:RunID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RunMember is one row of a run's membership snapshot.
type RunMember struct {
	RunID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	PayslipID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}
