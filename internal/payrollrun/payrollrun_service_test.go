package payrollrun_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/employee"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payrollrun"
	payrollrunerrors "github.com/mozhdeveloper/NexHRMS-sub002/internal/payrollrun/errors"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/statutory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRunRepository struct {
	withTxFn            func(tx *sql.Tx) payrollrun.Repository
	createFn            func(ctx context.Context, run *payrollrun.PayrollRun) error
	findByPeriodLabelFn func(ctx context.Context, periodLabel string) (*payrollrun.PayrollRun, error)
	findAllFn           func(ctx context.Context) ([]payrollrun.PayrollRun, error)
	updateFn            func(ctx context.Context, run *payrollrun.PayrollRun) error
	createMembersFn     func(ctx context.Context, runID uuid.UUID, payslipIDs []uuid.UUID) error
	findMemberIDsFn     func(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error)
	deleteAllFn         func(ctx context.Context) error
}

func (f *fakeRunRepository) WithTx(tx *sql.Tx) payrollrun.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeRunRepository) Create(ctx context.Context, run *payrollrun.PayrollRun) error {
	if f.createFn != nil {
		return f.createFn(ctx, run)
	}
	return nil
}

func (f *fakeRunRepository) FindByPeriodLabel(ctx context.Context, periodLabel string) (*payrollrun.PayrollRun, error) {
	if f.findByPeriodLabelFn != nil {
		return f.findByPeriodLabelFn(ctx, periodLabel)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunRepository) FindByPeriodLabelForUpdate(ctx context.Context, periodLabel string) (*payrollrun.PayrollRun, error) {
	return f.FindByPeriodLabel(ctx, periodLabel)
}

func (f *fakeRunRepository) FindAll(ctx context.Context) ([]payrollrun.PayrollRun, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeRunRepository) Update(ctx context.Context, run *payrollrun.PayrollRun) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, run)
	}
	return nil
}

func (f *fakeRunRepository) CreateMembers(ctx context.Context, runID uuid.UUID, payslipIDs []uuid.UUID) error {
	if f.createMembersFn != nil {
		return f.createMembersFn(ctx, runID, payslipIDs)
	}
	return nil
}

func (f *fakeRunRepository) FindMemberIDs(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error) {
	if f.findMemberIDsFn != nil {
		return f.findMemberIDsFn(ctx, runID)
	}
	return nil, nil
}

func (f *fakeRunRepository) DeleteAll(ctx context.Context) error {
	if f.deleteAllFn != nil {
		return f.deleteAllFn(ctx)
	}
	return nil
}

type fakeSlipRepository struct {
	payslip.Repository

	findByIDsFn           func(ctx context.Context, ids []string) ([]payslip.Payslip, error)
	findAllByIssuedDateFn func(ctx context.Context, issuedAt time.Time) ([]payslip.Payslip, error)
	updateFn              func(ctx context.Context, p *payslip.Payslip) error
}

func (f *fakeSlipRepository) WithTx(tx *sql.Tx) payslip.Repository { return f }

func (f *fakeSlipRepository) FindByIDs(ctx context.Context, ids []string) ([]payslip.Payslip, error) {
	if f.findByIDsFn != nil {
		return f.findByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (f *fakeSlipRepository) FindAllByIssuedDate(ctx context.Context, issuedAt time.Time) ([]payslip.Payslip, error) {
	if f.findAllByIssuedDateFn != nil {
		return f.findAllByIssuedDateFn(ctx, issuedAt)
	}
	return nil, nil
}

func (f *fakeSlipRepository) Update(ctx context.Context, p *payslip.Payslip) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, p)
	}
	return nil
}

type fakeEmployeeRepository struct {
	findByIDFn      func(ctx context.Context, id string) (*employee.Employee, error)
	findByIDsFn     func(ctx context.Context, ids []string) ([]employee.Employee, error)
	findAllActiveFn func(ctx context.Context) ([]employee.Employee, error)
}

func (f *fakeEmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeRepository) FindByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	if f.findByIDsFn != nil {
		return f.findByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindAllActive(ctx context.Context) ([]employee.Employee, error) {
	if f.findAllActiveFn != nil {
		return f.findAllActiveFn(ctx)
	}
	return nil, nil
}

type runServiceDeps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	service  payrollrun.Service
	repo     *fakeRunRepository
	slips    *fakeSlipRepository
	emplRepo *fakeEmployeeRepository
}

func setupRunServiceTest(t *testing.T) *runServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRunRepository{}
	slips := &fakeSlipRepository{}
	emplRepo := &fakeEmployeeRepository{}
	svc := payrollrun.NewService(db, repo, slips, emplRepo, nil)

	return &runServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo, slips: slips, emplRepo: emplRepo}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

// storeRun keeps one in-memory run and its membership behind the fake
// repository so successive lifecycle calls observe each other's writes.
func storeRun(repo *fakeRunRepository, stored *payrollrun.PayrollRun, members *[]uuid.UUID) {
	repo.findByPeriodLabelFn = func(ctx context.Context, periodLabel string) (*payrollrun.PayrollRun, error) {
		if stored.PeriodLabel != periodLabel {
			return nil, gorm.ErrRecordNotFound
		}
		cp := *stored
		return &cp, nil
	}
	repo.createFn = func(ctx context.Context, run *payrollrun.PayrollRun) error {
		*stored = *run
		return nil
	}
	repo.updateFn = func(ctx context.Context, run *payrollrun.PayrollRun) error {
		*stored = *run
		return nil
	}
	repo.createMembersFn = func(ctx context.Context, runID uuid.UUID, payslipIDs []uuid.UUID) error {
		*members = append(*members, payslipIDs...)
		return nil
	}
	repo.findMemberIDsFn = func(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error) {
		return append([]uuid.UUID(nil), *members...), nil
	}
}

func TestPayrollRunService_Lock_SynthesizesRunAndPinsPolicy(t *testing.T) {
	ctx := context.Background()
	date := "2026-08-31"

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	var stored payrollrun.PayrollRun
	var members []uuid.UUID
	storeRun(deps.repo, &stored, &members)

	slipA := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusIssued}
	slipB := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusConfirmed}
	deps.slips.findAllByIssuedDateFn = func(ctx context.Context, issuedAt time.Time) ([]payslip.Payslip, error) {
		assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), issuedAt)
		return []payslip.Payslip{slipA, slipB}, nil
	}

	expectTx(t, deps.sqlMock, true)
	resp, err := deps.service.Lock(ctx, "hr-admin", date)

	assert.NoError(t, err)
	assert.Equal(t, payrollrun.StatusLocked, resp.Status)
	assert.True(t, resp.Locked)
	assert.NotNil(t, resp.LockedAt)
	assert.ElementsMatch(t, []string{slipA.ID.String(), slipB.ID.String()}, resp.PayslipIDs)

	current := statutory.Current()
	assert.Equal(t, current.Version, resp.Policy.RuleSetVersion)
	assert.Equal(t, current.TaxTableVersion, resp.Policy.TaxTableVersion)
	assert.Equal(t, "hr-admin", resp.Policy.LockedBy)

	// One run per date, derived from the date itself.
	assert.Equal(t, payrollrun.RunIDForDate(date).String(), resp.ID)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollRunService_Lock_RelockKeepsSnapshotAndMembership(t *testing.T) {
	ctx := context.Background()
	date := "2026-08-31"

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	var stored payrollrun.PayrollRun
	var members []uuid.UUID
	storeRun(deps.repo, &stored, &members)

	deps.slips.findAllByIssuedDateFn = func(ctx context.Context, issuedAt time.Time) ([]payslip.Payslip, error) {
		return []payslip.Payslip{{ID: uuid.New(), Status: payslip.StatusConfirmed}}, nil
	}

	expectTx(t, deps.sqlMock, true)
	first, err := deps.service.Lock(ctx, "hr-admin", date)
	assert.NoError(t, err)

	// New payslips issued after lock must never join the membership.
	deps.slips.findAllByIssuedDateFn = func(ctx context.Context, issuedAt time.Time) ([]payslip.Payslip, error) {
		t.Fatal("membership must not be recomputed for a locked run")
		return nil, nil
	}

	expectTx(t, deps.sqlMock, false)
	second, err := deps.service.Lock(ctx, "someone-else", date)

	assert.NoError(t, err)
	assert.Equal(t, first.Policy, second.Policy)
	assert.Equal(t, "hr-admin", second.Policy.LockedBy)
	assert.Equal(t, first.PayslipIDs, second.PayslipIDs)
	assert.Equal(t, first.LockedAt, second.LockedAt)
}

func TestPayrollRunService_Publish_CascadesConfirmedOnly(t *testing.T) {
	ctx := context.Background()
	date := "2026-08-31"

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	confirmed := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusConfirmed}
	issued := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusIssued}

	lockedAt := time.Now().UTC()
	stored := payrollrun.PayrollRun{
		ID:          payrollrun.RunIDForDate(date),
		PeriodLabel: date,
		RunType:     payrollrun.RunTypeRegular,
		Status:      payrollrun.StatusLocked,
		Locked:      true,
		LockedAt:    &lockedAt,
	}
	members := []uuid.UUID{confirmed.ID, issued.ID}
	storeRun(deps.repo, &stored, &members)

	deps.slips.findByIDsFn = func(ctx context.Context, ids []string) ([]payslip.Payslip, error) {
		assert.Len(t, ids, 2)
		return []payslip.Payslip{confirmed, issued}, nil
	}

	updated := map[string]string{}
	deps.slips.updateFn = func(ctx context.Context, p *payslip.Payslip) error {
		updated[p.ID.String()] = p.Status
		return nil
	}

	expectTx(t, deps.sqlMock, true)
	resp, err := deps.service.Publish(ctx, "hr-admin", date)

	assert.NoError(t, err)
	assert.Equal(t, payrollrun.StatusPublished, resp.Status)
	assert.Equal(t, payslip.StatusPublished, updated[confirmed.ID.String()])
	_, issuedTouched := updated[issued.ID.String()]
	assert.False(t, issuedTouched, "issued payslips must not be auto-advanced")
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollRunService_GuardViolations(t *testing.T) {
	ctx := context.Background()
	date := "2026-08-31"

	t.Run("publish requires locked", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		stored := payrollrun.PayrollRun{ID: payrollrun.RunIDForDate(date), PeriodLabel: date, Status: payrollrun.StatusDraft}
		members := []uuid.UUID{}
		storeRun(deps.repo, &stored, &members)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Publish(ctx, "hr-admin", date)

		assert.ErrorIs(t, err, payrollrunerrors.ErrPublishRequiresLocked)
		assert.Equal(t, payrollrun.StatusDraft, stored.Status)
	})

	t.Run("double publish rejected", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		stored := payrollrun.PayrollRun{ID: payrollrun.RunIDForDate(date), PeriodLabel: date, Status: payrollrun.StatusPublished, Locked: true}
		members := []uuid.UUID{}
		storeRun(deps.repo, &stored, &members)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Publish(ctx, "hr-admin", date)

		assert.ErrorIs(t, err, payrollrunerrors.ErrAlreadyPublished)
	})

	t.Run("mark paid requires published", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		stored := payrollrun.PayrollRun{ID: payrollrun.RunIDForDate(date), PeriodLabel: date, Status: payrollrun.StatusLocked, Locked: true}
		members := []uuid.UUID{}
		storeRun(deps.repo, &stored, &members)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.MarkPaid(ctx, date)

		assert.ErrorIs(t, err, payrollrunerrors.ErrMarkPaidRequiresPublished)
	})

	t.Run("publish unknown run is not found", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Publish(ctx, "hr-admin", date)

		assert.ErrorIs(t, err, payrollrunerrors.ErrRunNotFound)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Lock(ctx, "hr-admin", "31-08-2026")
		assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidDateFormat)
	})
}

func TestPayrollRunService_CreateDraft_Idempotent(t *testing.T) {
	ctx := context.Background()
	date := "2026-08-31"

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	var stored payrollrun.PayrollRun
	var members []uuid.UUID
	storeRun(deps.repo, &stored, &members)

	expectTx(t, deps.sqlMock, true)
	first, err := deps.service.CreateDraft(ctx, payrollrun.CreateDraftRunRequest{Date: date})
	assert.NoError(t, err)
	assert.Equal(t, payrollrun.StatusDraft, first.Status)

	// Second create for the same date returns the existing run, no new tx.
	second, err := deps.service.CreateDraft(ctx, payrollrun.CreateDraftRunRequest{Date: date, RunType: payrollrun.RunTypeOffCycle})
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, payrollrun.RunTypeRegular, second.RunType)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollRunService_ExportBankFile(t *testing.T) {
	ctx := context.Background()
	date := "2026-08-31"

	t.Run("exact column contract", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		emplID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
		slipID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

		deps.slips.findAllByIssuedDateFn = func(ctx context.Context, issuedAt time.Time) ([]payslip.Payslip, error) {
			return []payslip.Payslip{{ID: slipID, EmployeeID: emplID, NetPay: 27400, Status: payslip.StatusPaid}}, nil
		}
		deps.emplRepo.findByIDsFn = func(ctx context.Context, ids []string) ([]employee.Employee, error) {
			return []employee.Employee{{ID: emplID, FullName: "Maria Santos", BankAccountNo: "BDO-00123"}}, nil
		}

		file, err := deps.service.ExportBankFile(ctx, date)

		assert.NoError(t, err)
		want := "account_reference,employee_name,net_pay,payment_date,payslip_id\n" +
			"BDO-00123,Maria Santos,27400.00,2026-08-31,22222222-2222-2222-2222-222222222222\n"
		assert.Equal(t, want, string(file))
	})

	t.Run("zero rows produce no file", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		file, err := deps.service.ExportBankFile(ctx, date)

		assert.NoError(t, err)
		assert.Nil(t, file)
	})
}

func TestPayrollRunService_CreateRaces(t *testing.T) {
	ctx := context.Background()
	date := "2026-08-31"
	dup := &pgconn.PgError{Code: "23505"}

	t.Run("losing a draft create race returns the winner's run", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		winner := payrollrun.PayrollRun{
			ID:          payrollrun.RunIDForDate(date),
			PeriodLabel: date,
			RunType:     payrollrun.RunTypeRegular,
			Status:      payrollrun.StatusDraft,
		}
		raced := false
		deps.repo.findByPeriodLabelFn = func(ctx context.Context, periodLabel string) (*payrollrun.PayrollRun, error) {
			if !raced {
				return nil, gorm.ErrRecordNotFound
			}
			cp := winner
			return &cp, nil
		}
		deps.repo.createFn = func(ctx context.Context, run *payrollrun.PayrollRun) error {
			raced = true
			return dup
		}

		expectTx(t, deps.sqlMock, false)
		resp, err := deps.service.CreateDraft(ctx, payrollrun.CreateDraftRunRequest{Date: date})

		assert.NoError(t, err)
		assert.Equal(t, winner.ID.String(), resp.ID)
		assert.Equal(t, payrollrun.StatusDraft, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("losing an implicit-create race during lock reruns against the winner", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		lockedAt := time.Now().UTC()
		winner := payrollrun.PayrollRun{
			ID:          payrollrun.RunIDForDate(date),
			PeriodLabel: date,
			RunType:     payrollrun.RunTypeRegular,
			Status:      payrollrun.StatusLocked,
			Locked:      true,
			LockedAt:    &lockedAt,
			Policy:      payrollrun.PolicySnapshot{RuleSetVersion: "2026-01", LockedBy: "first-caller"},
		}
		raced := false
		deps.repo.findByPeriodLabelFn = func(ctx context.Context, periodLabel string) (*payrollrun.PayrollRun, error) {
			if !raced {
				return nil, gorm.ErrRecordNotFound
			}
			cp := winner
			return &cp, nil
		}
		deps.repo.createFn = func(ctx context.Context, run *payrollrun.PayrollRun) error {
			raced = true
			return dup
		}

		expectTx(t, deps.sqlMock, false)
		expectTx(t, deps.sqlMock, false)
		resp, err := deps.service.Lock(ctx, "second-caller", date)

		assert.NoError(t, err)
		assert.True(t, resp.Locked)
		assert.Equal(t, "first-caller", resp.Policy.LockedBy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
