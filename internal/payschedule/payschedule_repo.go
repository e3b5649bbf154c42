package payschedule

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=payschedule_repo.go -destination=mock/payschedule_repo_mock.go -package=mock
type Repository interface {
	Get(ctx context.Context) (*PayScheduleConfig, error)
	Upsert(ctx context.Context, cfg *PayScheduleConfig) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*PayScheduleConfig, error) {
	var cfg PayScheduleConfig
	err := r.db.WithContext(ctx).
		First(&cfg, "id = ?", singletonID).Error
	return &cfg, err
}

// Upsert writes the singleton row with ON CONFLICT so first write and every
// later update go through the same statement.
func (r *repository) Upsert(ctx context.Context, cfg *PayScheduleConfig) error {
	cfg.ID = singletonID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"frequency", "cutoff_day", "pay_day", "updated_at"}),
		}).
		Create(cfg).Error
}
