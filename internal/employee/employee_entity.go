package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is the directory read model. The record is owned by the external
// employee directory service; this core only reads salary, join date and bank
// details as computation and export inputs.
type Employee struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName      string    `gorm:"type:varchar(160);not null"`
	MonthlySalary int64     `gorm:"type:bigint;not null;default:0"`
	HiredAt       time.Time `gorm:"type:date;not null"`
	BankAccountNo string    `gorm:"type:varchar(40)"`
	Active        bool      `gorm:"not null;default:true;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
