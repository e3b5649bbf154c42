package adjustment

import (
	"context"
	"database/sql"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/connection"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=adjustment_repo.go -destination=mock/adjustment_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *Adjustment) error
	FindByID(ctx context.Context, id string) (*Adjustment, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Adjustment, error)
	FindAllByRun(ctx context.Context, runID string) ([]Adjustment, error)
	FindAllByEmployee(ctx context.Context, employeeID string) ([]Adjustment, error)
	Update(ctx context.Context, a *Adjustment) error
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

func (r *repository) Create(ctx context.Context, a *Adjustment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Adjustment, error) {
	var a Adjustment
	err := r.db.WithContext(ctx).
		First(&a, "id = ?", id).Error
	return &a, err
}

// FindByIDForUpdate locks the adjustment row so review and apply serialize
// per adjustment; only meaningful on a WithTx repository.
func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Adjustment, error) {
	var a Adjustment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	return &a, err
}

func (r *repository) FindAllByRun(ctx context.Context, runID string) ([]Adjustment, error) {
	var adjustments []Adjustment
	err := r.db.WithContext(ctx).
		Where("payroll_run_id = ?", runID).
		Order("created_at DESC").
		Find(&adjustments).Error
	return adjustments, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID string) ([]Adjustment, error) {
	var adjustments []Adjustment
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&adjustments).Error
	return adjustments, err
}

func (r *repository) Update(ctx context.Context, a *Adjustment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// DeleteAll is the demo/test reset path.
func (r *repository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&Adjustment{}).Error
}
