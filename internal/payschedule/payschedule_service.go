package payschedule

import (
	"context"
	"errors"
	"time"

	payscheduleerrors "github.com/mozhdeveloper/NexHRMS-sub002/internal/payschedule/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=payschedule_service.go -destination=mock/payschedule_service_mock.go -package=mock
type Service interface {
	Get(ctx context.Context) (PayScheduleResponse, error)
	Update(ctx context.Context, req UpdatePayScheduleRequest) (PayScheduleResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("payschedule.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payschedule.service")
	}
	return &service{repo: repo, logger: l}
}

// Get returns the stored schedule, or the defaults when nothing has been
// written yet.
func (s *service) Get(ctx context.Context) (PayScheduleResponse, error) {
	cfg, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PayScheduleResponse{
			Frequency: FrequencyMonthly,
			CutoffDay: 25,
			PayDay:    30,
		}, nil
	} else if err != nil {
		return PayScheduleResponse{}, err
	}
	return mapConfigToResponse(*cfg), nil
}

func (s *service) Update(ctx context.Context, req UpdatePayScheduleRequest) (PayScheduleResponse, error) {
	if req.Frequency != FrequencyMonthly && req.Frequency != FrequencySemiMonthly {
		return PayScheduleResponse{}, payscheduleerrors.ErrInvalidFrequency
	}
	if req.CutoffDay < 1 || req.CutoffDay > 31 || req.PayDay < 1 || req.PayDay > 31 {
		return PayScheduleResponse{}, payscheduleerrors.ErrInvalidDay
	}

	cfg := &PayScheduleConfig{
		Frequency: req.Frequency,
		CutoffDay: req.CutoffDay,
		PayDay:    req.PayDay,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		s.logger.Error("update pay schedule persist failed", zap.Error(err))
		return PayScheduleResponse{}, err
	}

	s.logger.Info("update pay schedule success",
		zap.String("frequency", cfg.Frequency),
		zap.Int("cutoff_day", cfg.CutoffDay),
		zap.Int("pay_day", cfg.PayDay),
	)

	return mapConfigToResponse(*cfg), nil
}

func mapConfigToResponse(cfg PayScheduleConfig) PayScheduleResponse {
	return PayScheduleResponse{
		Frequency: cfg.Frequency,
		CutoffDay: cfg.CutoffDay,
		PayDay:    cfg.PayDay,
		UpdatedAt: cfg.UpdatedAt.Format(time.RFC3339),
	}
}
