package payslip

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	paysliperrors "github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip/errors"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/events"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/messaging/kafka"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/contextutil"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/statutory"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	StatusIssued       = "ISSUED"
	StatusConfirmed    = "CONFIRMED"
	StatusPublished    = "PUBLISHED"
	StatusPaid         = "PAID"
	StatusAcknowledged = "ACKNOWLEDGED"

	KindRegular         = "REGULAR"
	KindCorrection      = "CORRECTION"
	KindThirteenthMonth = "THIRTEENTH_MONTH"
	KindFinalPay        = "FINAL_PAY"
)

var validStatuses = map[string]bool{
	StatusIssued:       true,
	StatusConfirmed:    true,
	StatusPublished:    true,
	StatusPaid:         true,
	StatusAcknowledged: true,
}

// canTransition encodes the forward-only lifecycle
// ISSUED -> CONFIRMED -> PUBLISHED -> PAID -> ACKNOWLEDGED.
func canTransition(current, target string) bool {
	switch current {
	case StatusIssued:
		return target == StatusConfirmed
	case StatusConfirmed:
		return target == StatusPublished
	case StatusPublished:
		return target == StatusPaid
	case StatusPaid:
		return target == StatusAcknowledged
	default:
		return false
	}
}

//go:generate mockgen -source=payslip_service.go -destination=mock/payslip_service_mock.go -package=mock
type Service interface {
	Issue(ctx context.Context, actorID string, req IssuePayslipRequest) (PayslipResponse, error)
	Confirm(ctx context.Context, id string) (PayslipResponse, error)
	Publish(ctx context.Context, actorID, id string) (PayslipResponse, error)
	RecordPayment(ctx context.Context, id string, req RecordPaymentRequest) (PayslipResponse, error)
	Sign(ctx context.Context, id string, req SignPayslipRequest) (PayslipResponse, error)
	Acknowledge(ctx context.Context, actorID, id string) (PayslipResponse, error)
	GetByEmployee(ctx context.Context, employeeID string) ([]PayslipResponse, error)
	GetByStatus(ctx context.Context, status string) ([]PayslipResponse, error)
	GenerateDocument(ctx context.Context, id string) (PayslipResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	rdb    *redis.Client
	sf     singleflight.Group
	docDir string
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	return NewServiceWithDeps(db, repo, nil, nil, logger...)
}

func NewServiceWithDeps(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("payslip.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payslip.service")
	}

	docDir := os.Getenv("PAYSLIP_DOC_DIR")
	if docDir == "" {
		docDir = "payslip-docs"
	}

	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		rdb:    rdb,
		docDir: docDir,
		logger: l,
	}
}

func (s *service) Issue(ctx context.Context, actorID string, req IssuePayslipRequest) (PayslipResponse, error) {
	s.logger.Debug("issue payslip requested",
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("period_start", req.PeriodStart),
	)

	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return PayslipResponse{}, paysliperrors.ErrInvalidEmployeeID
	}

	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		return PayslipResponse{}, err
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		return PayslipResponse{}, err
	}
	if periodStart.After(periodEnd) {
		return PayslipResponse{}, paysliperrors.ErrInvalidDateRange
	}

	issuedAt := today()
	if req.IssuedAt != "" {
		issuedAt, err = parseDate(req.IssuedAt)
		if err != nil {
			return PayslipResponse{}, err
		}
	}

	deductions := req.Deductions
	if req.AutoStatutory {
		b := statutory.Current().ComputeDeductions(req.GrossPay)
		deductions.SocialInsurance = b.SocialInsurance
		deductions.HealthInsurance = b.HealthInsurance
		deductions.HousingFund = b.HousingFund
		deductions.WithholdingTax = b.WithholdingTax
	}

	if req.GrossPay < 0 || req.Allowances < 0 ||
		deductions.SocialInsurance < 0 || deductions.HealthInsurance < 0 ||
		deductions.HousingFund < 0 || deductions.WithholdingTax < 0 ||
		deductions.Other < 0 || deductions.Loan < 0 {
		return PayslipResponse{}, paysliperrors.ErrNegativeAmount
	}

	netPay := req.GrossPay + req.Allowances - deductions.Sum()
	if req.ExpectedNetPay != nil && *req.ExpectedNetPay != netPay {
		return PayslipResponse{}, paysliperrors.ErrNetPayMismatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("issue payslip begin tx failed", zap.Error(err))
		return PayslipResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	p := &Payslip{
		ID:              uuid.New(),
		EmployeeID:      employeeUUID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		GrossPay:        req.GrossPay,
		Allowances:      req.Allowances,
		SocialInsurance: deductions.SocialInsurance,
		HealthInsurance: deductions.HealthInsurance,
		HousingFund:     deductions.HousingFund,
		WithholdingTax:  deductions.WithholdingTax,
		OtherDeductions: deductions.Other,
		LoanRepayment:   deductions.Loan,
		NetPay:          netPay,
		IssuedAt:        issuedAt,
		Status:          StatusIssued,
		Kind:            KindRegular,
		Notes:           req.Notes,
	}

	if err := qtx.Create(ctx, p); err != nil {
		s.logger.Error("issue payslip persist failed", zap.Error(err))
		return PayslipResponse{}, err
	}

	if err := s.enqueueLifecycleEvent(ctx, tx, p, events.PayslipIssued); err != nil {
		return PayslipResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("issue payslip commit failed", zap.Error(err))
		return PayslipResponse{}, err
	}

	s.invalidateEmployeeCache(ctx, p.EmployeeID.String())
	s.logger.Info("issue payslip success",
		zap.String("payslip_id", p.ID.String()),
		zap.String("employee_id", p.EmployeeID.String()),
		zap.Int64("net_pay", p.NetPay),
	)

	return mapToResponse(*p), nil
}

func (s *service) Confirm(ctx context.Context, id string) (PayslipResponse, error) {
	return s.transition(ctx, id, StatusConfirmed, func(p *Payslip, now time.Time) {
		p.ConfirmedAt = &now
	}, "")
}

func (s *service) Publish(ctx context.Context, actorID, id string) (PayslipResponse, error) {
	return s.transition(ctx, id, StatusPublished, func(p *Payslip, now time.Time) {
		p.PublishedAt = &now
	}, actorID)
}

func (s *service) RecordPayment(ctx context.Context, id string, req RecordPaymentRequest) (PayslipResponse, error) {
	return s.transition(ctx, id, StatusPaid, func(p *Payslip, now time.Time) {
		p.PaidAt = &now
		method := req.Method
		reference := req.Reference
		p.PaymentMethod = &method
		p.PaymentReference = &reference
	}, "")
}

// transition performs one guarded forward step. The guard read takes a row
// lock inside the same transaction as the write, so two racing calls cannot
// both pass the guard.
func (s *service) transition(
	ctx context.Context,
	id, target string,
	stamp func(p *Payslip, now time.Time),
	actorID string,
) (PayslipResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("payslip transition begin tx failed", zap.Error(err))
		return PayslipResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	p, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PayslipResponse{}, paysliperrors.ErrPayslipNotFound
		}
		return PayslipResponse{}, err
	}

	if !canTransition(p.Status, target) {
		s.logger.Warn("payslip transition rejected",
			zap.String("payslip_id", id),
			zap.String("from_status", p.Status),
			zap.String("to_status", target),
		)
		return PayslipResponse{}, paysliperrors.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	p.Status = target
	stamp(p, now)

	if err := qtx.Update(ctx, p); err != nil {
		s.logger.Error("payslip transition persist failed",
			zap.String("payslip_id", id),
			zap.Error(err),
		)
		return PayslipResponse{}, err
	}

	switch target {
	case StatusPublished:
		if err := s.enqueueLifecycleEvent(ctx, tx, p, events.PayslipPublished); err != nil {
			return PayslipResponse{}, err
		}
		if err := s.enqueueDocumentRequest(ctx, tx, p, actorID); err != nil {
			return PayslipResponse{}, err
		}
	case StatusPaid:
		if err := s.enqueueLifecycleEvent(ctx, tx, p, events.PayslipPaid); err != nil {
			return PayslipResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("payslip transition commit failed",
			zap.String("payslip_id", id),
			zap.Error(err),
		)
		return PayslipResponse{}, err
	}

	s.invalidateEmployeeCache(ctx, p.EmployeeID.String())
	s.logger.Info("payslip transition success",
		zap.String("payslip_id", id),
		zap.String("status", target),
	)

	return mapToResponse(*p), nil
}

func (s *service) Sign(ctx context.Context, id string, req SignPayslipRequest) (PayslipResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayslipResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	p, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PayslipResponse{}, paysliperrors.ErrPayslipNotFound
		}
		return PayslipResponse{}, err
	}

	if p.Status != StatusPublished && p.Status != StatusPaid {
		return PayslipResponse{}, paysliperrors.ErrSignRequiresPublishedOrPaid
	}
	if p.SignedAt != nil {
		return PayslipResponse{}, paysliperrors.ErrAlreadySigned
	}

	// Signing stamps metadata only; status never changes here.
	now := time.Now().UTC()
	artifact := req.SignatureArtifact
	p.SignedAt = &now
	p.SignatureArtifact = &artifact

	if err := qtx.Update(ctx, p); err != nil {
		s.logger.Error("sign payslip persist failed", zap.String("payslip_id", id), zap.Error(err))
		return PayslipResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PayslipResponse{}, err
	}

	s.invalidateEmployeeCache(ctx, p.EmployeeID.String())
	s.logger.Info("sign payslip success", zap.String("payslip_id", id))

	return mapToResponse(*p), nil
}

func (s *service) Acknowledge(ctx context.Context, actorID, id string) (PayslipResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayslipResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	p, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PayslipResponse{}, paysliperrors.ErrPayslipNotFound
		}
		return PayslipResponse{}, err
	}

	if p.AcknowledgedAt != nil {
		return PayslipResponse{}, paysliperrors.ErrAlreadyAcknowledged
	}
	if p.Status != StatusPaid {
		return PayslipResponse{}, paysliperrors.ErrAcknowledgeRequiresPaid
	}
	if p.SignedAt == nil {
		return PayslipResponse{}, paysliperrors.ErrAcknowledgeRequiresSignature
	}

	now := time.Now().UTC()
	acknowledger := actorID
	p.Status = StatusAcknowledged
	p.AcknowledgedAt = &now
	p.AcknowledgedBy = &acknowledger

	if err := qtx.Update(ctx, p); err != nil {
		s.logger.Error("acknowledge payslip persist failed", zap.String("payslip_id", id), zap.Error(err))
		return PayslipResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PayslipResponse{}, err
	}

	s.invalidateEmployeeCache(ctx, p.EmployeeID.String())
	s.logger.Info("acknowledge payslip success",
		zap.String("payslip_id", id),
		zap.String("acknowledged_by", actorID),
	)

	return mapToResponse(*p), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string) ([]PayslipResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, paysliperrors.ErrInvalidEmployeeID
	}

	cacheKey := employeeCacheKey(employeeID)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []PayslipResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	// singleflight collapses concurrent rebuilds of the same employee's list.
	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		slips, err := s.repo.FindAllByEmployee(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		resp := mapToListResponse(slips)

		if s.rdb != nil {
			if payload, err := json.Marshal(resp); err == nil {
				_ = s.rdb.Set(ctx, cacheKey, payload, 5*time.Minute).Err()
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]PayslipResponse), nil
}

func (s *service) GetByStatus(ctx context.Context, status string) ([]PayslipResponse, error) {
	if !validStatuses[status] {
		return nil, paysliperrors.ErrInvalidStatusFilter
	}

	slips, err := s.repo.FindAllByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(slips), nil
}

// GenerateDocument renders the payslip PDF artifact. Called by the document
// consumer; idempotent so redelivered events do not rewrite artifacts.
func (s *service) GenerateDocument(ctx context.Context, id string) (PayslipResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PayslipResponse{}, paysliperrors.ErrPayslipNotFound
		}
		return PayslipResponse{}, err
	}

	if p.DocumentGeneratedAt != nil {
		return mapToResponse(*p), nil
	}

	pdf, err := buildPayslipPDF(documentLines(p))
	if err != nil {
		return PayslipResponse{}, err
	}

	if err := os.MkdirAll(s.docDir, 0o755); err != nil {
		return PayslipResponse{}, err
	}
	path := filepath.Join(s.docDir, fmt.Sprintf("payslip-%s.pdf", p.ID))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return PayslipResponse{}, err
	}

	now := time.Now().UTC()
	p.DocumentURL = &path
	p.DocumentGeneratedAt = &now

	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("store payslip document reference failed",
			zap.String("payslip_id", id),
			zap.Error(err),
		)
		return PayslipResponse{}, err
	}

	s.logger.Info("payslip document generated",
		zap.String("payslip_id", id),
		zap.String("path", path),
	)

	return mapToResponse(*p), nil
}

func (s *service) enqueueLifecycleEvent(ctx context.Context, tx *sql.Tx, p *Payslip, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.PayslipLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		PayslipID:  p.ID.String(),
		EmployeeID: p.EmployeeID.String(),
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "payslip",
		AggregateID:   p.ID.String(),
		EventType:     eventType,
		Topic:         events.PayslipLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("payslip outbox persist failed",
			zap.String("payslip_id", p.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) enqueueDocumentRequest(ctx context.Context, tx *sql.Tx, p *Payslip, actorID string) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.PayslipDocumentRequestedEvent{
		EventType:   "payslip_document_requested",
		RequestID:   rid,
		PayslipID:   p.ID.String(),
		RequestedBy: actorID,
		OccurredAt:  time.Now().UTC(),
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
		EventType:     event.EventType,
		Topic:         events.PayslipDocumentRequestedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) invalidateEmployeeCache(ctx context.Context, employeeID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, employeeCacheKey(employeeID)).Err(); err != nil {
		s.logger.Error("invalidate payslip cache failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
	}
}

func employeeCacheKey(employeeID string) string {
	return "payslips:employee:" + employeeID
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, paysliperrors.ErrInvalidDateFormat
	}
	return t, nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func documentLines(p *Payslip) []string {
	return []string{
		"Payslip " + p.ID.String(),
		"Employee: " + p.EmployeeID.String(),
		fmt.Sprintf("Period: %s - %s", p.PeriodStart.Format("2006-01-02"), p.PeriodEnd.Format("2006-01-02")),
		fmt.Sprintf("Gross pay: %d", p.GrossPay),
		fmt.Sprintf("Allowances: %d", p.Allowances),
		fmt.Sprintf("Total deductions: %d", p.TotalDeductions()),
		fmt.Sprintf("Net pay: %d", p.NetPay),
		"Status: " + p.Status,
	}
}

func mapToResponse(p Payslip) PayslipResponse {
	resp := PayslipResponse{
		ID:          p.ID.String(),
		EmployeeID:  p.EmployeeID.String(),
		PeriodStart: p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   p.PeriodEnd.Format("2006-01-02"),
		GrossPay:    p.GrossPay,
		Allowances:  p.Allowances,
		Deductions: DeductionFields{
			SocialInsurance: p.SocialInsurance,
			HealthInsurance: p.HealthInsurance,
			HousingFund:     p.HousingFund,
			WithholdingTax:  p.WithholdingTax,
			Other:           p.OtherDeductions,
			Loan:            p.LoanRepayment,
		},
		TotalDeductions:  p.TotalDeductions(),
		NetPay:           p.NetPay,
		IssuedAt:         p.IssuedAt.Format("2006-01-02"),
		Status:           p.Status,
		Kind:             p.Kind,
		PaymentMethod:    p.PaymentMethod,
		PaymentReference: p.PaymentReference,
		Notes:            p.Notes,
		DocumentURL:      p.DocumentURL,
		AcknowledgedBy:   p.AcknowledgedBy,
	}

	if p.AdjustmentID != nil {
		v := p.AdjustmentID.String()
		resp.AdjustmentID = &v
	}
	resp.ConfirmedAt = formatTimePtr(p.ConfirmedAt)
	resp.PublishedAt = formatTimePtr(p.PublishedAt)
	resp.PaidAt = formatTimePtr(p.PaidAt)
	resp.SignedAt = formatTimePtr(p.SignedAt)
	resp.AcknowledgedAt = formatTimePtr(p.AcknowledgedAt)

	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

func mapToListResponse(slips []Payslip) []PayslipResponse {
	resp := make([]PayslipResponse, len(slips))
	for i, p := range slips {
		resp[i] = mapToResponse(p)
	}
	return resp
}
