package app

import (
	"database/sql"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/adjustment"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/employee"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payrollrun"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payschedule"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/settlement"

	"gorm.io/gorm"
)

// The outbox table is addressed with raw SQL, so its schema lives here rather
// than behind a gorm model.
const createOutboxTable = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id UUID PRIMARY KEY,
	request_id TEXT,
	aggregate_type TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	topic TEXT NOT NULL,
	payload JSONB NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	retry_count INT NOT NULL DEFAULT 0,
	error_message TEXT,
	next_retry_at TIMESTAMPTZ,
	processed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func migrate(gormDB *gorm.DB, db *sql.DB) error {
	if err := gormDB.AutoMigrate(
		&employee.Employee{},
		&payslip.Payslip{},
		&payrollrun.PayrollRun{},
		&payrollrun.RunMember{},
		&adjustment.Adjustment{},
		&settlement.FinalPayComputation{},
		&payschedule.PayScheduleConfig{},
	); err != nil {
		return err
	}

	_, err := db.Exec(createOutboxTable)
	return err
}
