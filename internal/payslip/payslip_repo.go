package payslip

import (
	"context"
	"database/sql"
	"time"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/connection"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=payslip_repo.go -destination=mock/payslip_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *Payslip) error
	FindByID(ctx context.Context, id string) (*Payslip, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Payslip, error)
	FindByIDs(ctx context.Context, ids []string) ([]Payslip, error)
	FindAllByEmployee(ctx context.Context, employeeID string) ([]Payslip, error)
	FindAllByStatus(ctx context.Context, status string) ([]Payslip, error)
	FindAllByIssuedDate(ctx context.Context, issuedAt time.Time) ([]Payslip, error)
	Update(ctx context.Context, p *Payslip) error
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

func (r *repository) Create(ctx context.Context, p *Payslip) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Payslip, error) {
	var p Payslip
	err := r.db.WithContext(ctx).
		First(&p, "id = ?", id).Error
	return &p, err
}

// FindByIDForUpdate takes a row lock so a guarded transition holds the slip
// until its transaction commits; only meaningful on a WithTx repository.
func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Payslip, error) {
	var p Payslip
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *repository) FindByIDs(ctx context.Context, ids []string) ([]Payslip, error) {
	var slips []Payslip
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("issued_at ASC, created_at ASC").
		Find(&slips).Error
	return slips, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID string) ([]Payslip, error) {
	var slips []Payslip
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("issued_at DESC, created_at DESC").
		Find(&slips).Error
	return slips, err
}

func (r *repository) FindAllByStatus(ctx context.Context, status string) ([]Payslip, error) {
	var slips []Payslip
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("issued_at DESC, created_at DESC").
		Find(&slips).Error
	return slips, err
}

func (r *repository) FindAllByIssuedDate(ctx context.Context, issuedAt time.Time) ([]Payslip, error) {
	var slips []Payslip
	err := r.db.WithContext(ctx).
		Where("issued_at = ?", issuedAt).
		Order("created_at ASC").
		Find(&slips).Error
	return slips, err
}

func (r *repository) Update(ctx context.Context, p *Payslip) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// DeleteAll is the demo/test reset path; nothing else removes payslip rows.
func (r *repository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Unscoped().
		Delete(&Payslip{}).Error
}
