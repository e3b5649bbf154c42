package settlement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/employee"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/events"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/messaging/kafka"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"
	settlementerrors "github.com/mozhdeveloper/NexHRMS-sub002/internal/settlement/errors"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// annualWorkHours is the standard annualized-hours denominator used to derive
// an hourly rate from a monthly salary.
const annualWorkHours = 2080

const overtimePremium = 1.25

//go:generate mockgen -source=settlement_service.go -destination=mock/settlement_service_mock.go -package=mock
type Service interface {
	ComputeFinalPay(ctx context.Context, req ComputeFinalPayRequest) (FinalPayResponse, error)
	GetFinalPay(ctx context.Context, employeeID string) (FinalPayResponse, error)
	GenerateThirteenthMonth(ctx context.Context, req GenerateThirteenthMonthRequest) (ThirteenthMonthResponse, error)
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
	l := zap.L().Named("settlement.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("settlement.service")
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

// ComputeFinalPay settles a separating employee exactly once. Only the
// partial final month is paid out: pro-rated salary up to the resignation
// day, plus unpaid overtime at the statutory premium, plus unused leave,
// minus the remaining loan balance (floored at zero). A repeat call for the
// same employee returns the stored record untouched.
func (s *service) ComputeFinalPay(ctx context.Context, req ComputeFinalPayRequest) (FinalPayResponse, error) {
	resignedAt, err := time.Parse("2006-01-02", req.ResignedAt)
	if err != nil {
		return FinalPayResponse{}, settlementerrors.ErrInvalidDateFormat
	}
	if req.UnpaidOTHours < 0 || req.LeaveDays < 0 || req.LoanBalance < 0 {
		return FinalPayResponse{}, settlementerrors.ErrNegativeInput
	}

	if existing, err := s.repo.FindByEmployee(ctx, req.EmployeeID); err == nil {
		return mapFinalPayToResponse(*existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return FinalPayResponse{}, err
	}

	salary, err := s.resolveSalary(ctx, req)
	if err != nil {
		return FinalPayResponse{}, err
	}

	dailyRate := roundHalfUp(float64(salary) / float64(daysInMonth(resignedAt)))
	proRated := roundHalfUp(float64(dailyRate) * float64(resignedAt.Day()))
	hourlyRate := float64(salary) * 12 / annualWorkHours
	unpaidOT := roundHalfUp(req.UnpaidOTHours * hourlyRate * overtimePremium)
	leavePayout := roundHalfUp(req.LeaveDays * float64(dailyRate))

	gross := proRated + unpaidOT + leavePayout
	net := gross - req.LoanBalance
	if net < 0 {
		net = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("compute final pay begin tx failed", zap.Error(err))
		return FinalPayResponse{}, err
	}
	defer tx.Rollback()

	employeeID := uuid.MustParse(req.EmployeeID)
	note := fmt.Sprintf("Final pay settlement: resigned %s", req.ResignedAt)
	slip := &payslip.Payslip{
		ID:              uuid.New(),
		EmployeeID:      employeeID,
		PeriodStart:     firstOfMonth(resignedAt),
		PeriodEnd:       resignedAt,
		GrossPay:        gross,
		OtherDeductions: gross - net,
		NetPay:          net,
		IssuedAt:        todayUTC(),
		Status:          payslip.StatusIssued,
		Kind:            payslip.KindFinalPay,
		Notes:           &note,
	}
	if err := s.payslips.WithTx(tx).Create(ctx, slip); err != nil {
		return FinalPayResponse{}, err
	}

	comp := &FinalPayComputation{
		ID:                   uuid.New(),
		EmployeeID:           employeeID,
		ResignedAt:           resignedAt,
		MonthlySalary:        salary,
		DailyRate:            dailyRate,
		ProRatedSalary:       proRated,
		UnpaidOvertime:       unpaidOT,
		LeavePayout:          leavePayout,
		RemainingLoanBalance: req.LoanBalance,
		GrossFinalPay:        gross,
		NetFinalPay:          net,
		Status:               StatusComputed,
		PayslipID:            slip.ID,
	}
	if err := s.repo.WithTx(tx).Create(ctx, comp); err != nil {
		// Two racing computations: the unique index on employee_id lets
		// exactly one through; the loser hands back the winner's record.
		if isUniqueViolation(err) {
			existing, findErr := s.repo.FindByEmployee(ctx, req.EmployeeID)
			if findErr != nil {
				return FinalPayResponse{}, findErr
			}
			return mapFinalPayToResponse(*existing), nil
		}
		s.logger.Error("compute final pay persist failed", zap.Error(err))
		return FinalPayResponse{}, err
	}

	if err := s.enqueuePayslipIssued(ctx, tx, slip); err != nil {
		return FinalPayResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("compute final pay commit failed", zap.Error(err))
		return FinalPayResponse{}, err
	}

	s.logger.Info("compute final pay success",
		zap.String("employee_id", req.EmployeeID),
		zap.Int64("gross_final_pay", gross),
		zap.Int64("net_final_pay", net),
	)

	return mapFinalPayToResponse(*comp), nil
}

func (s *service) resolveSalary(ctx context.Context, req ComputeFinalPayRequest) (int64, error) {
	if req.MonthlySalary != nil {
		if *req.MonthlySalary < 0 {
			return 0, settlementerrors.ErrNegativeInput
		}
		return *req.MonthlySalary, nil
	}

	empl, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, settlementerrors.ErrEmployeeNotFound
		}
		return 0, err
	}
	return empl.MonthlySalary, nil
}

func (s *service) GetFinalPay(ctx context.Context, employeeID string) (FinalPayResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return FinalPayResponse{}, settlementerrors.ErrEmployeeNotFound
	}

	comp, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FinalPayResponse{}, settlementerrors.ErrFinalPayNotFound
		}
		return FinalPayResponse{}, err
	}
	return mapFinalPayToResponse(*comp), nil
}

// GenerateThirteenthMonth accrues the annual bonus across months actually
// worked in the payout year. Mid-year hires get a pro-rated share, future
// hires and zero payouts are skipped. Deductions are intentionally zero:
// bonus pay of this kind is statutorily exempt up to a threshold.
func (s *service) GenerateThirteenthMonth(ctx context.Context, req GenerateThirteenthMonthRequest) (ThirteenthMonthResponse, error) {
	payoutDate := todayUTC()
	if req.PayoutDate != "" {
		var err error
		payoutDate, err = time.Parse("2006-01-02", req.PayoutDate)
		if err != nil {
			return ThirteenthMonthResponse{}, settlementerrors.ErrInvalidDateFormat
		}
	}

	var (
		employees []employee.Employee
		err       error
	)
	if len(req.EmployeeIDs) > 0 {
		for _, id := range req.EmployeeIDs {
			if _, parseErr := uuid.Parse(id); parseErr != nil {
				return ThirteenthMonthResponse{}, settlementerrors.ErrEmployeeNotFound
			}
		}
		employees, err = s.employees.FindByIDs(ctx, req.EmployeeIDs)
	} else {
		employees, err = s.employees.FindAllActive(ctx)
	}
	if err != nil {
		return ThirteenthMonthResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("generate 13th month begin tx failed", zap.Error(err))
		return ThirteenthMonthResponse{}, err
	}
	defer tx.Rollback()

	pqtx := s.payslips.WithTx(tx)

	resp := ThirteenthMonthResponse{
		PayoutDate: payoutDate.Format("2006-01-02"),
		Generated:  []ThirteenthMonthItem{},
	}

	year := payoutDate.Year()
	for _, empl := range employees {
		months := monthsWorkedInYear(empl.HiredAt, year)
		payout := roundHalfUp(float64(empl.MonthlySalary) * float64(months) / 12)
		if payout == 0 {
			resp.Skipped++
			continue
		}

		note := fmt.Sprintf("13th month pay: %d/12 months worked in %d", months, year)
		slip := &payslip.Payslip{
			ID:          uuid.New(),
			EmployeeID:  empl.ID,
			PeriodStart: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
			GrossPay:    payout,
			NetPay:      payout,
			IssuedAt:    payoutDate,
			Status:      payslip.StatusIssued,
			Kind:        payslip.KindThirteenthMonth,
			Notes:       &note,
		}
		if err := pqtx.Create(ctx, slip); err != nil {
			s.logger.Error("generate 13th month persist failed",
				zap.String("employee_id", empl.ID.String()),
				zap.Error(err),
			)
			return ThirteenthMonthResponse{}, err
		}
		if err := s.enqueuePayslipIssued(ctx, tx, slip); err != nil {
			return ThirteenthMonthResponse{}, err
		}

		resp.Generated = append(resp.Generated, ThirteenthMonthItem{
			EmployeeID:   empl.ID.String(),
			EmployeeName: empl.FullName,
			MonthsWorked: months,
			Payout:       payout,
			PayslipID:    slip.ID.String(),
		})
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("generate 13th month commit failed", zap.Error(err))
		return ThirteenthMonthResponse{}, err
	}

	s.logger.Info("generate 13th month success",
		zap.String("payout_date", resp.PayoutDate),
		zap.Int("generated_count", len(resp.Generated)),
		zap.Int("skipped_count", resp.Skipped),
	)

	return resp, nil
}

// monthsWorkedInYear counts the months an employee accrues bonus for in the
// given calendar year: 12 for anyone hired earlier, 12 minus the 0-based
// join month for same-year hires, 0 for future hires.
func monthsWorkedInYear(hiredAt time.Time, year int) int {
	switch {
	case hiredAt.Year() < year:
		return 12
	case hiredAt.Year() == year:
		return 12 - (int(hiredAt.Month()) - 1)
	default:
		return 0
	}
}

func (s *service) enqueuePayslipIssued(ctx context.Context, tx *sql.Tx, p *payslip.Payslip) error {
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

func roundHalfUp(v float64) int64 {
	return int64(math.Round(v))
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func mapFinalPayToResponse(c FinalPayComputation) FinalPayResponse {
	return FinalPayResponse{
		ID:                   c.ID.String(),
		EmployeeID:           c.EmployeeID.String(),
		ResignedAt:           c.ResignedAt.Format("2006-01-02"),
		MonthlySalary:        c.MonthlySalary,
		DailyRate:            c.DailyRate,
		ProRatedSalary:       c.ProRatedSalary,
		UnpaidOvertime:       c.UnpaidOvertime,
		LeavePayout:          c.LeavePayout,
		RemainingLoanBalance: c.RemainingLoanBalance,
		GrossFinalPay:        c.GrossFinalPay,
		NetFinalPay:          c.NetFinalPay,
		Status:               c.Status,
		PayslipID:            c.PayslipID.String(),
		CreatedAt:            c.CreatedAt.Format(time.RFC3339),
	}
}
