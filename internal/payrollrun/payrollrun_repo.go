package payrollrun

import (
	"context"
	"database/sql"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/connection"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=payrollrun_repo.go -destination=mock/payrollrun_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, run *PayrollRun) error
	FindByPeriodLabel(ctx context.Context, periodLabel string) (*PayrollRun, error)
	FindByPeriodLabelForUpdate(ctx context.Context, periodLabel string) (*PayrollRun, error)
	FindAll(ctx context.Context) ([]PayrollRun, error)
	Update(ctx context.Context, run *PayrollRun) error
	CreateMembers(ctx context.Context, runID uuid.UUID, payslipIDs []uuid.UUID) error
	FindMemberIDs(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error)
	DeleteAll(ctx context.Context) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: connection.BindTx(r.db, tx)}
}

func (r *repository) Create(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *repository) FindByPeriodLabel(ctx context.Context, periodLabel string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		First(&run, "period_label = ?", periodLabel).Error
	return &run, err
}

// FindByPeriodLabelForUpdate locks the run row so concurrent lifecycle calls
// for the same pay date serialize on it; only meaningful on a WithTx
// repository.
func (r *repository) FindByPeriodLabelForUpdate(ctx context.Context, periodLabel string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&run, "period_label = ?", periodLabel).Error
	return &run, err
}

func (r *repository) FindAll(ctx context.Context) ([]PayrollRun, error) {
	var runs []PayrollRun
	err := r.db.WithContext(ctx).
		Order("period_label DESC").
		Find(&runs).Error
	return runs, err
}

func (r *repository) Update(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *repository) CreateMembers(ctx context.Context, runID uuid.UUID, payslipIDs []uuid.UUID) error {
	if len(payslipIDs) == 0 {
		return nil
	}

	members := make([]RunMember, len(payslipIDs))
	for i, id := range payslipIDs {
		members[i] = RunMember{RunID: runID, PayslipID: id}
	}
	return r.db.WithContext(ctx).Create(&members).Error
}

func (r *repository) FindMemberIDs(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&RunMember{}).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Pluck("payslip_id", &ids).Error
	return ids, err
}

// DeleteAll is the demo/test reset path.
func (r *repository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&RunMember{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&PayrollRun{}).Error
}
