package settlement

import (
	"context"
	"database/sql"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/connection"

	"gorm.io/gorm"
)

//go:generate mockgen -source=settlement_repo.go -destination=mock/settlement_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, c *FinalPayComputation) error
	FindByEmployee(ctx context.Context, employeeID string) (*FinalPayComputation, error)
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

func (r *repository) Create(ctx context.Context, c *FinalPayComputation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) (*FinalPayComputation, error) {
	var c FinalPayComputation
	err := r.db.WithContext(ctx).
		First(&c, "employee_id = ?", employeeID).Error
	return &c, err
}

// DeleteAll is the demo/test reset path.
func (r *repository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&FinalPayComputation{}).Error
}
