package adjustment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	adjustmenterrors "github.com/mozhdeveloper/NexHRMS-sub002/internal/adjustment/errors"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/events"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/messaging/kafka"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusApplied  = "APPLIED"

	TypeEarnings            = "EARNINGS"
	TypeDeduction           = "DEDUCTION"
	TypeStatutoryCorrection = "STATUTORY_CORRECTION"
)

//go:generate mockgen -source=adjustment_service.go -destination=mock/adjustment_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actorID string, req CreateAdjustmentRequest) (AdjustmentResponse, error)
	Approve(ctx context.Context, actorID, id string) (AdjustmentResponse, error)
	Reject(ctx context.Context, actorID, id string) (AdjustmentResponse, error)
	Apply(ctx context.Context, id string, req ApplyAdjustmentRequest) (AdjustmentResponse, error)
	GetByRun(ctx context.Context, runID string) ([]AdjustmentResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	payslips payslip.Repository
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	payslipRepo payslip.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("adjustment.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("adjustment.service")
	}

	return &service{
		db:       db,
		repo:     repo,
		payslips: payslipRepo,
		outbox:   outboxRepo,
		logger:   l,
	}
}

// checkAmountSign enforces type semantics at the boundary: earnings raise net
// pay so the amount must be positive, deductions and statutory corrections
// lower it so the amount must be negative.
func checkAmountSign(adjustmentType string, amount int64) error {
	if amount == 0 {
		return adjustmenterrors.ErrZeroAmount
	}

	switch adjustmentType {
	case TypeEarnings:
		if amount < 0 {
			return adjustmenterrors.ErrAmountSignMismatch
		}
	case TypeDeduction, TypeStatutoryCorrection:
		if amount > 0 {
			return adjustmenterrors.ErrAmountSignMismatch
		}
	default:
		return adjustmenterrors.ErrInvalidAdjustmentType
	}
	return nil
}

func (s *service) Create(ctx context.Context, actorID string, req CreateAdjustmentRequest) (AdjustmentResponse, error) {
	if err := checkAmountSign(req.AdjustmentType, req.Amount); err != nil {
		return AdjustmentResponse{}, err
	}
	if req.Reason == "" {
		return AdjustmentResponse{}, adjustmenterrors.ErrReasonRequired
	}

	runID, err := uuid.Parse(req.PayrollRunID)
	if err != nil {
		return AdjustmentResponse{}, err
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AdjustmentResponse{}, err
	}
	referenceID, err := uuid.Parse(req.ReferencePayslipID)
	if err != nil {
		return AdjustmentResponse{}, err
	}

	if _, err := s.payslips.FindByID(ctx, referenceID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdjustmentResponse{}, adjustmenterrors.ErrReferencePayslipNotFound
		}
		return AdjustmentResponse{}, err
	}

	a := &Adjustment{
		ID:                 uuid.New(),
		PayrollRunID:       runID,
		EmployeeID:         employeeID,
		AdjustmentType:     req.AdjustmentType,
		ReferencePayslipID: referenceID,
		Amount:             req.Amount,
		Reason:             req.Reason,
		Status:             StatusPending,
		CreatedBy:          actorID,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("create adjustment persist failed", zap.Error(err))
		return AdjustmentResponse{}, err
	}

	s.logger.Info("create adjustment success",
		zap.String("adjustment_id", a.ID.String()),
		zap.String("adjustment_type", a.AdjustmentType),
		zap.Int64("amount", a.Amount),
		zap.String("created_by", actorID),
	)

	return mapAdjustmentToResponse(*a), nil
}

func (s *service) Approve(ctx context.Context, actorID, id string) (AdjustmentResponse, error) {
	return s.review(ctx, actorID, id, StatusApproved)
}

func (s *service) Reject(ctx context.Context, actorID, id string) (AdjustmentResponse, error) {
	return s.review(ctx, actorID, id, StatusRejected)
}

func (s *service) review(ctx context.Context, actorID, id, target string) (AdjustmentResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AdjustmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	a, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdjustmentResponse{}, adjustmenterrors.ErrAdjustmentNotFound
		}
		return AdjustmentResponse{}, err
	}

	if a.Status != StatusPending {
		if target == StatusApproved {
			return AdjustmentResponse{}, adjustmenterrors.ErrApproveRequiresPending
		}
		return AdjustmentResponse{}, adjustmenterrors.ErrRejectRequiresPending
	}

	now := time.Now().UTC()
	a.Status = target
	if target == StatusApproved {
		reviewer := actorID
		a.ApprovedBy = &reviewer
		a.ApprovedAt = &now
	} else {
		a.RejectedAt = &now
	}

	if err := qtx.Update(ctx, a); err != nil {
		s.logger.Error("review adjustment persist failed",
			zap.String("adjustment_id", id),
			zap.Error(err),
		)
		return AdjustmentResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AdjustmentResponse{}, err
	}

	s.logger.Info("review adjustment success",
		zap.String("adjustment_id", id),
		zap.String("status", target),
		zap.String("reviewed_by", actorID),
	)

	return mapAdjustmentToResponse(*a), nil
}

// Apply folds an approved adjustment into the ledger by minting a brand-new
// correction payslip; the referenced original is never touched. The status
// flip and the correction insert share one transaction so a crash cannot
// leave an APPLIED adjustment without its payslip. Re-applying an already
// applied adjustment returns the stored record with its original links.
func (s *service) Apply(ctx context.Context, id string, req ApplyAdjustmentRequest) (AdjustmentResponse, error) {
	targetRunID, err := uuid.Parse(req.TargetRunID)
	if err != nil {
		return AdjustmentResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply adjustment begin tx failed", zap.Error(err))
		return AdjustmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	a, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdjustmentResponse{}, adjustmenterrors.ErrAdjustmentNotFound
		}
		return AdjustmentResponse{}, err
	}

	if a.Status == StatusApplied {
		return mapAdjustmentToResponse(*a), nil
	}
	if a.Status != StatusApproved {
		return AdjustmentResponse{}, adjustmenterrors.ErrApplyRequiresApproved
	}

	pqtx := s.payslips.WithTx(tx)

	original, err := pqtx.FindByID(ctx, a.ReferencePayslipID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdjustmentResponse{}, adjustmenterrors.ErrReferencePayslipNotFound
		}
		return AdjustmentResponse{}, err
	}

	correction := s.buildCorrection(a, original)
	if err := pqtx.Create(ctx, correction); err != nil {
		s.logger.Error("apply adjustment correction persist failed",
			zap.String("adjustment_id", id),
			zap.Error(err),
		)
		return AdjustmentResponse{}, err
	}

	now := time.Now().UTC()
	a.Status = StatusApplied
	a.AppliedRunID = &targetRunID
	a.AppliedPayslipID = &correction.ID
	a.AppliedAt = &now

	if err := qtx.Update(ctx, a); err != nil {
		return AdjustmentResponse{}, err
	}

	if err := s.enqueueCorrectionIssued(ctx, tx, correction); err != nil {
		return AdjustmentResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply adjustment commit failed", zap.Error(err))
		return AdjustmentResponse{}, err
	}

	s.logger.Info("apply adjustment success",
		zap.String("adjustment_id", id),
		zap.String("correction_payslip_id", correction.ID.String()),
		zap.String("applied_run_id", targetRunID.String()),
	)

	return mapAdjustmentToResponse(*a), nil
}

// buildCorrection maps the adjustment type onto the correction payslip's
// monetary columns. Net pay always equals the signed adjustment amount.
func (s *service) buildCorrection(a *Adjustment, original *payslip.Payslip) *payslip.Payslip {
	adjustmentID := a.ID
	reason := a.Reason
	correction := &payslip.Payslip{
		ID:           uuid.New(),
		EmployeeID:   a.EmployeeID,
		PeriodStart:  original.PeriodStart,
		PeriodEnd:    original.PeriodEnd,
		NetPay:       a.Amount,
		IssuedAt:     todayUTC(),
		Status:       payslip.StatusIssued,
		Kind:         payslip.KindCorrection,
		AdjustmentID: &adjustmentID,
		Notes:        &reason,
	}

	switch a.AdjustmentType {
	case TypeEarnings:
		correction.GrossPay = a.Amount
	case TypeDeduction:
		correction.OtherDeductions = -a.Amount
	case TypeStatutoryCorrection:
		correction.SocialInsurance = -a.Amount
	}

	return correction
}

func (s *service) GetByRun(ctx context.Context, runID string) ([]AdjustmentResponse, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, err
	}

	adjustments, err := s.repo.FindAllByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	resp := make([]AdjustmentResponse, len(adjustments))
	for i, a := range adjustments {
		resp[i] = mapAdjustmentToResponse(a)
	}
	return resp, nil
}

func (s *service) enqueueCorrectionIssued(ctx context.Context, tx *sql.Tx, p *payslip.Payslip) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.PayslipLifecycleEvent{
		EventType:  events.PayslipIssued,
		RequestID:  rid,
		PayslipID:  p.ID.String(),
		EmployeeID: p.EmployeeID.String(),
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "payslip",
		AggregateID:   p.ID.String(),
		EventType:     events.PayslipIssued,
		Topic:         events.PayslipLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func mapAdjustmentToResponse(a Adjustment) AdjustmentResponse {
	resp := AdjustmentResponse{
		ID:                 a.ID.String(),
		PayrollRunID:       a.PayrollRunID.String(),
		EmployeeID:         a.EmployeeID.String(),
		AdjustmentType:     a.AdjustmentType,
		ReferencePayslipID: a.ReferencePayslipID.String(),
		Amount:             a.Amount,
		Reason:             a.Reason,
		Status:             a.Status,
		CreatedBy:          a.CreatedBy,
		ApprovedBy:         a.ApprovedBy,
		CreatedAt:          a.CreatedAt.Format(time.RFC3339),
	}

	if a.ApprovedAt != nil {
		v := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if a.RejectedAt != nil {
		v := a.RejectedAt.Format(time.RFC3339)
		resp.RejectedAt = &v
	}
	if a.AppliedRunID != nil {
		v := a.AppliedRunID.String()
		resp.AppliedRunID = &v
	}
	if a.AppliedPayslipID != nil {
		v := a.AppliedPayslipID.String()
		resp.AppliedPayslipID = &v
	}
	if a.AppliedAt != nil {
		v := a.AppliedAt.Format(time.RFC3339)
		resp.AppliedAt = &v
	}

	return resp
}
