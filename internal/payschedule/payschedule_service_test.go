package payschedule_test

import (
	"context"
	"testing"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payschedule"
	payscheduleerrors "github.com/mozhdeveloper/NexHRMS-sub002/internal/payschedule/errors"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeScheduleRepository struct {
	getFn    func(ctx context.Context) (*payschedule.PayScheduleConfig, error)
	upsertFn func(ctx context.Context, cfg *payschedule.PayScheduleConfig) error
}

func (f *fakeScheduleRepository) Get(ctx context.Context) (*payschedule.PayScheduleConfig, error) {
	if f.getFn != nil {
		return f.getFn(ctx)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeScheduleRepository) Upsert(ctx context.Context, cfg *payschedule.PayScheduleConfig) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, cfg)
	}
	return nil
}

func TestPayScheduleService_Get_DefaultsWhenUnset(t *testing.T) {
	svc := payschedule.NewService(&fakeScheduleRepository{})

	resp, err := svc.Get(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, payschedule.FrequencyMonthly, resp.Frequency)
	assert.Equal(t, 25, resp.CutoffDay)
	assert.Equal(t, 30, resp.PayDay)
}

func TestPayScheduleService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and echoes the new schedule", func(t *testing.T) {
		var stored *payschedule.PayScheduleConfig
		repo := &fakeScheduleRepository{
			upsertFn: func(ctx context.Context, cfg *payschedule.PayScheduleConfig) error {
				stored = cfg
				return nil
			},
		}
		svc := payschedule.NewService(repo)

		resp, err := svc.Update(ctx, payschedule.UpdatePayScheduleRequest{
			Frequency: payschedule.FrequencySemiMonthly,
			CutoffDay: 15,
			PayDay:    20,
		})

		assert.NoError(t, err)
		assert.Equal(t, payschedule.FrequencySemiMonthly, resp.Frequency)
		if assert.NotNil(t, stored) {
			assert.Equal(t, 15, stored.CutoffDay)
			assert.Equal(t, 20, stored.PayDay)
		}
	})

	t.Run("rejects unknown frequency", func(t *testing.T) {
		svc := payschedule.NewService(&fakeScheduleRepository{})

		_, err := svc.Update(ctx, payschedule.UpdatePayScheduleRequest{Frequency: "WEEKLY", CutoffDay: 15, PayDay: 20})
		assert.ErrorIs(t, err, payscheduleerrors.ErrInvalidFrequency)
	})

	t.Run("rejects out-of-range days", func(t *testing.T) {
		svc := payschedule.NewService(&fakeScheduleRepository{})

		_, err := svc.Update(ctx, payschedule.UpdatePayScheduleRequest{Frequency: payschedule.FrequencyMonthly, CutoffDay: 0, PayDay: 20})
		assert.ErrorIs(t, err, payscheduleerrors.ErrInvalidDay)

		_, err = svc.Update(ctx, payschedule.UpdatePayScheduleRequest{Frequency: payschedule.FrequencyMonthly, CutoffDay: 15, PayDay: 32})
		assert.ErrorIs(t, err, payscheduleerrors.ErrInvalidDay)
	})
}
