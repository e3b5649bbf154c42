package payrollrun

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/employee"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/events"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/messaging/kafka"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"
	payrollrunerrors "github.com/mozhdeveloper/NexHRMS-sub002/internal/payrollrun/errors"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/contextutil"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/statutory"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "DRAFT"
	StatusValidated = "VALIDATED"
	StatusLocked    = "LOCKED"
	StatusPublished = "PUBLISHED"
	StatusPaid      = "PAID"

	RunTypeRegular         = "REGULAR"
	RunTypeThirteenthMonth = "THIRTEENTH_MONTH"
	RunTypeFinalPay        = "FINAL_PAY"
	RunTypeOffCycle        = "OFF_CYCLE"
)

var validRunTypes = map[string]bool{
	RunTypeRegular:         true,
	RunTypeThirteenthMonth: true,
	RunTypeFinalPay:        true,
	RunTypeOffCycle:        true,
}

//go:generate mockgen -source=payrollrun_service.go -destination=mock/payrollrun_service_mock.go -package=mock
type Service interface {
	CreateDraft(ctx context.Context, req CreateDraftRunRequest) (PayrollRunResponse, error)
	Validate(ctx context.Context, date string) (PayrollRunResponse, error)
	Lock(ctx context.Context, actorID, date string) (PayrollRunResponse, error)
	Publish(ctx context.Context, actorID, date string) (PayrollRunResponse, error)
	MarkPaid(ctx context.Context, date string) (PayrollRunResponse, error)
	Get(ctx context.Context, date string) (PayrollRunResponse, error)
	ExportBankFile(ctx context.Context, date string) ([]byte, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	payslips  payslip.Repository
	employees employee.Repository
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	payslipRepo payslip.Repository,
	employeeRepo employee.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("payrollrun.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollrun.service")
	}

	return &service{
		db:        db,
		repo:      repo,
		payslips:  payslipRepo,
		employees: employeeRepo,
		outbox:    outboxRepo,
		logger:    l,
	}
}

// CreateDraft is idempotent per pay date: a duplicate create returns the run
// that already exists, whatever its state, and never touches it.
func (s *service) CreateDraft(ctx context.Context, req CreateDraftRunRequest) (PayrollRunResponse, error) {
	if _, err := parseRunDate(req.Date); err != nil {
		return PayrollRunResponse{}, err
	}

	runType := req.RunType
	if runType == "" {
		runType = RunTypeRegular
	}
	if !validRunTypes[runType] {
		return PayrollRunResponse{}, payrollrunerrors.ErrInvalidRunType
	}

	memberIDs := make([]uuid.UUID, len(req.PayslipIDs))
	for i, raw := range req.PayslipIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return PayrollRunResponse{}, payrollrunerrors.ErrInvalidPayslipID
		}
		memberIDs[i] = id
	}

	if existing, err := s.findWithMembers(ctx, req.Date); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return PayrollRunResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create draft run begin tx failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	run := &PayrollRun{
		ID:          RunIDForDate(req.Date),
		PeriodLabel: req.Date,
		RunType:     runType,
		Status:      StatusDraft,
	}
	if err := qtx.Create(ctx, run); err != nil {
		// Lost a race with another create for the same date: hand back the
		// winner's run, same as the pre-check would have.
		if isUniqueViolation(err) {
			tx.Rollback()
			return s.findWithMembers(ctx, req.Date)
		}
		s.logger.Error("create draft run persist failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}
	if err := qtx.CreateMembers(ctx, run.ID, memberIDs); err != nil {
		s.logger.Error("create draft run members failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return PayrollRunResponse{}, err
	}

	s.logger.Info("create draft run success",
		zap.String("run_id", run.ID.String()),
		zap.String("period_label", run.PeriodLabel),
		zap.Int("member_count", len(memberIDs)),
	)

	return mapRunToResponse(*run, memberIDs), nil
}

func (s *service) Validate(ctx context.Context, date string) (PayrollRunResponse, error) {
	if _, err := parseRunDate(date); err != nil {
		return PayrollRunResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	run, err := qtx.FindByPeriodLabelForUpdate(ctx, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First touch for this date creates the run implicitly.
		run = &PayrollRun{
			ID:          RunIDForDate(date),
			PeriodLabel: date,
			RunType:     RunTypeRegular,
			Status:      StatusDraft,
		}
		if err := qtx.Create(ctx, run); err != nil {
			// A concurrent call created the run first; rerun against its row.
			if isUniqueViolation(err) {
				tx.Rollback()
				return s.Validate(ctx, date)
			}
			return PayrollRunResponse{}, err
		}
	} else if err != nil {
		return PayrollRunResponse{}, err
	}

	switch run.Status {
	case StatusDraft:
		run.Status = StatusValidated
		if err := qtx.Update(ctx, run); err != nil {
			return PayrollRunResponse{}, err
		}
	case StatusValidated:
		// Re-validating is harmless.
	default:
		return PayrollRunResponse{}, payrollrunerrors.ErrValidateRequiresDraft
	}

	if err := tx.Commit(); err != nil {
		return PayrollRunResponse{}, err
	}

	memberIDs, err := s.repo.FindMemberIDs(ctx, run.ID)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	s.logger.Info("validate run success",
		zap.String("run_id", run.ID.String()),
		zap.String("period_label", date),
	)

	return mapRunToResponse(*run, memberIDs), nil
}

// Lock closes the pay period. If no run exists yet one is synthesized from
// every payslip issued on the date. Membership and the policy snapshot are
// written exactly once: re-locking an already-locked run returns the stored
// run byte for byte, regardless of who asks.
func (s *service) Lock(ctx context.Context, actorID, date string) (PayrollRunResponse, error) {
	issuedAt, err := parseRunDate(date)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("lock run begin tx failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	run, err := qtx.FindByPeriodLabelForUpdate(ctx, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		run = &PayrollRun{
			ID:          RunIDForDate(date),
			PeriodLabel: date,
			RunType:     RunTypeRegular,
			Status:      StatusDraft,
		}
		if err := qtx.Create(ctx, run); err != nil {
			// A concurrent call created the run first; rerun against its row.
			if isUniqueViolation(err) {
				tx.Rollback()
				return s.Lock(ctx, actorID, date)
			}
			return PayrollRunResponse{}, err
		}
	} else if err != nil {
		return PayrollRunResponse{}, err
	}

	if run.Locked {
		memberIDs, err := qtx.FindMemberIDs(ctx, run.ID)
		if err != nil {
			return PayrollRunResponse{}, err
		}
		return mapRunToResponse(*run, memberIDs), nil
	}

	if run.Status != StatusDraft && run.Status != StatusValidated {
		return PayrollRunResponse{}, payrollrunerrors.ErrLockRequiresDraftOrValidated
	}

	memberIDs, err := qtx.FindMemberIDs(ctx, run.ID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	if len(memberIDs) == 0 {
		slips, err := s.payslips.WithTx(tx).FindAllByIssuedDate(ctx, issuedAt)
		if err != nil {
			return PayrollRunResponse{}, err
		}
		memberIDs = make([]uuid.UUID, len(slips))
		for i, p := range slips {
			memberIDs[i] = p.ID
		}
		if err := qtx.CreateMembers(ctx, run.ID, memberIDs); err != nil {
			return PayrollRunResponse{}, err
		}
	}

	now := time.Now().UTC()
	rules := statutory.Current()
	run.Status = StatusLocked
	run.Locked = true
	run.LockedAt = &now
	run.Policy = PolicySnapshot{
		RuleSetVersion:         rules.Version,
		TaxTableVersion:        rules.TaxTableVersion,
		SocialInsuranceVersion: rules.SocialInsuranceVersion,
		HealthInsuranceVersion: rules.HealthInsuranceVersion,
		HousingFundVersion:     rules.HousingFundVersion,
		HolidayCalendarVersion: rules.HolidayCalendarVersion,
		FormulaVersion:         rules.FormulaVersion,
		LockedBy:               actorID,
	}

	if err := qtx.Update(ctx, run); err != nil {
		s.logger.Error("lock run persist failed",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		return PayrollRunResponse{}, err
	}

	if err := s.enqueueRunEvent(ctx, tx, run, events.PayrollRunLocked); err != nil {
		return PayrollRunResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("lock run commit failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}

	s.logger.Info("lock run success",
		zap.String("run_id", run.ID.String()),
		zap.String("period_label", date),
		zap.String("locked_by", actorID),
		zap.Int("member_count", len(memberIDs)),
	)

	return mapRunToResponse(*run, memberIDs), nil
}

// Publish advances the run and cascades over its frozen membership: member
// payslips at CONFIRMED move to PUBLISHED, payslips still at ISSUED stay
// put. The cascade and the run update share one transaction.
func (s *service) Publish(ctx context.Context, actorID, date string) (PayrollRunResponse, error) {
	if _, err := parseRunDate(date); err != nil {
		return PayrollRunResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("publish run begin tx failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	run, err := qtx.FindByPeriodLabelForUpdate(ctx, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PayrollRunResponse{}, payrollrunerrors.ErrRunNotFound
	} else if err != nil {
		return PayrollRunResponse{}, err
	}

	if !run.Locked {
		return PayrollRunResponse{}, payrollrunerrors.ErrPublishRequiresLocked
	}
	if run.Status == StatusPublished || run.Status == StatusPaid {
		return PayrollRunResponse{}, payrollrunerrors.ErrAlreadyPublished
	}

	memberIDs, err := qtx.FindMemberIDs(ctx, run.ID)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	pqtx := s.payslips.WithTx(tx)
	slips, err := pqtx.FindByIDs(ctx, uuidStrings(memberIDs))
	if err != nil {
		return PayrollRunResponse{}, err
	}

	now := time.Now().UTC()
	published := 0
	for i := range slips {
		p := &slips[i]
		if p.Status != payslip.StatusConfirmed {
			continue
		}
		p.Status = payslip.StatusPublished
		p.PublishedAt = &now
		if err := pqtx.Update(ctx, p); err != nil {
			s.logger.Error("publish run cascade persist failed",
				zap.String("run_id", run.ID.String()),
				zap.String("payslip_id", p.ID.String()),
				zap.Error(err),
			)
			return PayrollRunResponse{}, err
		}
		if err := s.enqueuePayslipEvent(ctx, tx, p, events.PayslipPublished); err != nil {
			return PayrollRunResponse{}, err
		}
		if err := s.enqueueDocumentRequest(ctx, tx, p, actorID); err != nil {
			return PayrollRunResponse{}, err
		}
		published++
	}

	run.Status = StatusPublished
	run.PublishedAt = &now
	if err := qtx.Update(ctx, run); err != nil {
		return PayrollRunResponse{}, err
	}

	if err := s.enqueueRunEvent(ctx, tx, run, events.PayrollRunPublished); err != nil {
		return PayrollRunResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("publish run commit failed", zap.Error(err))
		return PayrollRunResponse{}, err
	}

	s.logger.Info("publish run success",
		zap.String("run_id", run.ID.String()),
		zap.String("period_label", date),
		zap.Int("member_count", len(memberIDs)),
		zap.Int("published_count", published),
	)

	return mapRunToResponse(*run, memberIDs), nil
}

func (s *service) MarkPaid(ctx context.Context, date string) (PayrollRunResponse, error) {
	if _, err := parseRunDate(date); err != nil {
		return PayrollRunResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	run, err := qtx.FindByPeriodLabelForUpdate(ctx, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PayrollRunResponse{}, payrollrunerrors.ErrRunNotFound
	} else if err != nil {
		return PayrollRunResponse{}, err
	}

	if run.Status != StatusPublished {
		return PayrollRunResponse{}, payrollrunerrors.ErrMarkPaidRequiresPublished
	}

	now := time.Now().UTC()
	run.Status = StatusPaid
	run.PaidAt = &now
	if err := qtx.Update(ctx, run); err != nil {
		return PayrollRunResponse{}, err
	}

	if err := s.enqueueRunEvent(ctx, tx, run, events.PayrollRunPaid); err != nil {
		return PayrollRunResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return PayrollRunResponse{}, err
	}

	memberIDs, err := s.repo.FindMemberIDs(ctx, run.ID)
	if err != nil {
		return PayrollRunResponse{}, err
	}

	s.logger.Info("mark run paid success",
		zap.String("run_id", run.ID.String()),
		zap.String("period_label", date),
	)

	return mapRunToResponse(*run, memberIDs), nil
}

func (s *service) Get(ctx context.Context, date string) (PayrollRunResponse, error) {
	if _, err := parseRunDate(date); err != nil {
		return PayrollRunResponse{}, err
	}

	resp, err := s.findWithMembers(ctx, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PayrollRunResponse{}, payrollrunerrors.ErrRunNotFound
	}
	return resp, err
}

func (s *service) findWithMembers(ctx context.Context, date string) (PayrollRunResponse, error) {
	run, err := s.repo.FindByPeriodLabel(ctx, date)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	memberIDs, err := s.repo.FindMemberIDs(ctx, run.ID)
	if err != nil {
		return PayrollRunResponse{}, err
	}
	return mapRunToResponse(*run, memberIDs), nil
}

func (s *service) enqueueRunEvent(ctx context.Context, tx *sql.Tx, run *PayrollRun, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.PayrollRunLifecycleEvent{
		EventType:   eventType,
		RequestID:   rid,
		RunID:       run.ID.String(),
		PeriodLabel: run.PeriodLabel,
		OccurredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "payroll_run",
		AggregateID:   run.ID.String(),
		EventType:     eventType,
		Topic:         events.PayrollRunLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("payroll run outbox persist failed",
			zap.String("run_id", run.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) enqueuePayslipEvent(ctx context.Context, tx *sql.Tx, p *payslip.Payslip, eventType string) error {
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

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "payslip",
		AggregateID:   p.ID.String(),
		EventType:     eventType,
		Topic:         events.PayslipLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) enqueueDocumentRequest(ctx context.Context, tx *sql.Tx, p *payslip.Payslip, actorID string) error {
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

func parseRunDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, payrollrunerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func mapRunToResponse(run PayrollRun, memberIDs []uuid.UUID) PayrollRunResponse {
	resp := PayrollRunResponse{
		ID:          run.ID.String(),
		PeriodLabel: run.PeriodLabel,
		RunType:     run.RunType,
		Status:      run.Status,
		Locked:      run.Locked,
		PayslipIDs:  uuidStrings(memberIDs),
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
	}

	if run.Locked {
		resp.Policy = &PolicySnapshotResponse{
			RuleSetVersion:         run.Policy.RuleSetVersion,
			TaxTableVersion:        run.Policy.TaxTableVersion,
			SocialInsuranceVersion: run.Policy.SocialInsuranceVersion,
			HealthInsuranceVersion: run.Policy.HealthInsuranceVersion,
			HousingFundVersion:     run.Policy.HousingFundVersion,
			HolidayCalendarVersion: run.Policy.HolidayCalendarVersion,
			FormulaVersion:         run.Policy.FormulaVersion,
			LockedBy:               run.Policy.LockedBy,
		}
	}

	if run.LockedAt != nil {
		v := run.LockedAt.Format(time.RFC3339)
		resp.LockedAt = &v
	}
	if run.PublishedAt != nil {
		v := run.PublishedAt.Format(time.RFC3339)
		resp.PublishedAt = &v
	}
	if run.PaidAt != nil {
		v := run.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &v
	}

	return resp
}

// ExportBankFile builds the payment-instruction CSV for every payslip issued
// on the given date. Column order is a fixed contract with the receiving
// bank: account_reference, employee_name, net_pay, payment_date, payslip_id.
// Returns nil bytes when there is nothing to pay.
func (s *service) ExportBankFile(ctx context.Context, date string) ([]byte, error) {
	issuedAt, err := parseRunDate(date)
	if err != nil {
		return nil, err
	}

	slips, err := s.payslips.FindAllByIssuedDate(ctx, issuedAt)
	if err != nil {
		return nil, err
	}
	if len(slips) == 0 {
		return nil, nil
	}

	employeeIDs := make([]string, 0, len(slips))
	seen := make(map[string]bool, len(slips))
	for _, p := range slips {
		id := p.EmployeeID.String()
		if !seen[id] {
			seen[id] = true
			employeeIDs = append(employeeIDs, id)
		}
	}

	directory := make(map[string]employee.Employee, len(employeeIDs))
	if s.employees != nil {
		emps, err := s.employees.FindByIDs(ctx, employeeIDs)
		if err != nil {
			return nil, err
		}
		for _, e := range emps {
			directory[e.ID.String()] = e
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"account_reference", "employee_name", "net_pay", "payment_date", "payslip_id"}); err != nil {
		return nil, err
	}
	for _, p := range slips {
		account := ""
		name := ""
		if e, ok := directory[p.EmployeeID.String()]; ok {
			account = e.BankAccountNo
			name = e.FullName
		}
		row := []string{
			account,
			name,
			fmt.Sprintf("%.2f", float64(p.NetPay)),
			date,
			p.ID.String(),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.logger.Info("bank file exported",
		zap.String("payment_date", date),
		zap.Int("row_count", len(slips)),
	)

	return buf.Bytes(), nil
}
