package payslip_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/messaging/kafka"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"
	paysliperrors "github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakePayslipRepository struct {
	withTxFn              func(tx *sql.Tx) payslip.Repository
	createFn              func(ctx context.Context, p *payslip.Payslip) error
	findByIDFn            func(ctx context.Context, id string) (*payslip.Payslip, error)
	findByIDsFn           func(ctx context.Context, ids []string) ([]payslip.Payslip, error)
	findAllByEmployeeFn   func(ctx context.Context, employeeID string) ([]payslip.Payslip, error)
	findAllByStatusFn     func(ctx context.Context, status string) ([]payslip.Payslip, error)
	findAllByIssuedDateFn func(ctx context.Context, issuedAt time.Time) ([]payslip.Payslip, error)
	updateFn              func(ctx context.Context, p *payslip.Payslip) error
	deleteAllFn           func(ctx context.Context) error
}

func (f *fakePayslipRepository) WithTx(tx *sql.Tx) payslip.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakePayslipRepository) Create(ctx context.Context, p *payslip.Payslip) error {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return nil
}

func (f *fakePayslipRepository) FindByID(ctx context.Context, id string) (*payslip.Payslip, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayslipRepository) FindByIDForUpdate(ctx context.Context, id string) (*payslip.Payslip, error) {
	return f.FindByID(ctx, id)
}

func (f *fakePayslipRepository) FindByIDs(ctx context.Context, ids []string) ([]payslip.Payslip, error) {
	if f.findByIDsFn != nil {
		return f.findByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (f *fakePayslipRepository) FindAllByEmployee(ctx context.Context, employeeID string) ([]payslip.Payslip, error) {
	if f.findAllByEmployeeFn != nil {
		return f.findAllByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakePayslipRepository) FindAllByStatus(ctx context.Context, status string) ([]payslip.Payslip, error) {
	if f.findAllByStatusFn != nil {
		return f.findAllByStatusFn(ctx, status)
	}
	return nil, nil
}

func (f *fakePayslipRepository) FindAllByIssuedDate(ctx context.Context, issuedAt time.Time) ([]payslip.Payslip, error) {
	if f.findAllByIssuedDateFn != nil {
		return f.findAllByIssuedDateFn(ctx, issuedAt)
	}
	return nil, nil
}

func (f *fakePayslipRepository) Update(ctx context.Context, p *payslip.Payslip) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, p)
	}
	return nil
}

func (f *fakePayslipRepository) DeleteAll(ctx context.Context) error {
	if f.deleteAllFn != nil {
		return f.deleteAllFn(ctx)
	}
	return nil
}

type fakeOutboxRepository struct {
	events []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type payslipServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service payslip.Service
	repo    *fakePayslipRepository
	outbox  *fakeOutboxRepository
}

func setupPayslipServiceTest(t *testing.T) *payslipServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakePayslipRepository{}
	outbox := &fakeOutboxRepository{}
	svc := payslip.NewServiceWithDeps(db, repo, outbox, nil)

	return &payslipServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo, outbox: outbox}
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

// storeSlip wires the fake repository around one in-memory payslip so every
// lifecycle call reads and writes the same record.
func storeSlip(repo *fakePayslipRepository, stored *payslip.Payslip) {
	repo.findByIDFn = func(ctx context.Context, id string) (*payslip.Payslip, error) {
		if id != stored.ID.String() {
			return nil, gorm.ErrRecordNotFound
		}
		cp := *stored
		return &cp, nil
	}
	repo.updateFn = func(ctx context.Context, p *payslip.Payslip) error {
		*stored = *p
		return nil
	}
}

func TestPayslipService_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	deps := setupPayslipServiceTest(t)
	defer deps.db.Close()

	var stored payslip.Payslip
	deps.repo.createFn = func(ctx context.Context, p *payslip.Payslip) error {
		stored = *p
		return nil
	}

	expectTx(t, deps.sqlMock, true)
	resp, err := deps.service.Issue(ctx, "actor-1", payslip.IssuePayslipRequest{
		EmployeeID:  employeeID,
		PeriodStart: "2026-08-01",
		PeriodEnd:   "2026-08-31",
		GrossPay:    30000,
		Allowances:  1000,
		Deductions: payslip.DeductionFields{
			SocialInsurance: 1500,
			HealthInsurance: 750,
			HousingFund:     200,
			WithholdingTax:  1008,
			Other:           142,
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(27400), resp.NetPay)
	assert.Equal(t, payslip.StatusIssued, resp.Status)
	assert.Equal(t, payslip.KindRegular, resp.Kind)
	assert.Len(t, deps.outbox.events, 1)

	storeSlip(deps.repo, &stored)
	id := stored.ID.String()

	expectTx(t, deps.sqlMock, true)
	resp, err = deps.service.Confirm(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, payslip.StatusConfirmed, resp.Status)
	assert.NotNil(t, resp.ConfirmedAt)

	expectTx(t, deps.sqlMock, true)
	resp, err = deps.service.Publish(ctx, "actor-1", id)
	assert.NoError(t, err)
	assert.Equal(t, payslip.StatusPublished, resp.Status)

	expectTx(t, deps.sqlMock, true)
	resp, err = deps.service.RecordPayment(ctx, id, payslip.RecordPaymentRequest{
		Method:    "bank_transfer",
		Reference: "REF-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, payslip.StatusPaid, resp.Status)
	assert.Equal(t, "bank_transfer", *resp.PaymentMethod)
	assert.Equal(t, "REF-1", *resp.PaymentReference)

	expectTx(t, deps.sqlMock, true)
	resp, err = deps.service.Sign(ctx, id, payslip.SignPayslipRequest{SignatureArtifact: "sig-data"})
	assert.NoError(t, err)
	assert.NotNil(t, resp.SignedAt)
	assert.Equal(t, payslip.StatusPaid, resp.Status)

	expectTx(t, deps.sqlMock, true)
	resp, err = deps.service.Acknowledge(ctx, "EMP-1", id)
	assert.NoError(t, err)
	assert.Equal(t, payslip.StatusAcknowledged, resp.Status)
	assert.Equal(t, "EMP-1", *resp.AcknowledgedBy)

	// Net pay never drifted across the lifecycle.
	assert.Equal(t, int64(27400), stored.NetPay)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayslipService_Issue_Validation(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	t.Run("negative deduction rejected", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Issue(ctx, "actor-1", payslip.IssuePayslipRequest{
			EmployeeID:  employeeID,
			PeriodStart: "2026-08-01",
			PeriodEnd:   "2026-08-31",
			GrossPay:    30000,
			Deductions:  payslip.DeductionFields{Other: -5},
		})
		assert.ErrorIs(t, err, paysliperrors.ErrNegativeAmount)
	})

	t.Run("net pay mismatch rejected", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		expected := int64(99999)
		_, err := deps.service.Issue(ctx, "actor-1", payslip.IssuePayslipRequest{
			EmployeeID:     employeeID,
			PeriodStart:    "2026-08-01",
			PeriodEnd:      "2026-08-31",
			GrossPay:       30000,
			ExpectedNetPay: &expected,
		})
		assert.ErrorIs(t, err, paysliperrors.ErrNetPayMismatch)
	})

	t.Run("period end before start rejected", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Issue(ctx, "actor-1", payslip.IssuePayslipRequest{
			EmployeeID:  employeeID,
			PeriodStart: "2026-08-31",
			PeriodEnd:   "2026-08-01",
		})
		assert.ErrorIs(t, err, paysliperrors.ErrInvalidDateRange)
	})

	t.Run("auto statutory derives deductions from current rules", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		deps.repo.createFn = func(ctx context.Context, p *payslip.Payslip) error { return nil }

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Issue(ctx, "actor-1", payslip.IssuePayslipRequest{
			EmployeeID:    employeeID,
			PeriodStart:   "2026-08-01",
			PeriodEnd:     "2026-08-31",
			GrossPay:      30000,
			AutoStatutory: true,
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(1500), resp.Deductions.SocialInsurance)
		assert.Equal(t, int64(750), resp.Deductions.HealthInsurance)
		assert.Equal(t, int64(200), resp.Deductions.HousingFund)
		assert.Equal(t, int64(1008), resp.Deductions.WithholdingTax)
		assert.Equal(t, int64(30000-3458), resp.NetPay)
	})
}

func TestPayslipService_GuardViolationsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm requires issued", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		stored := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusPublished}
		storeSlip(deps.repo, &stored)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Confirm(ctx, stored.ID.String())

		assert.ErrorIs(t, err, paysliperrors.ErrInvalidStatusTransition)
		assert.Equal(t, payslip.StatusPublished, stored.Status)
	})

	t.Run("publish requires confirmed", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		stored := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusIssued}
		storeSlip(deps.repo, &stored)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Publish(ctx, "actor-1", stored.ID.String())

		assert.ErrorIs(t, err, paysliperrors.ErrInvalidStatusTransition)
		assert.Equal(t, payslip.StatusIssued, stored.Status)
	})

	t.Run("sign requires published or paid", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		stored := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusConfirmed}
		storeSlip(deps.repo, &stored)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Sign(ctx, stored.ID.String(), payslip.SignPayslipRequest{SignatureArtifact: "sig"})

		assert.ErrorIs(t, err, paysliperrors.ErrSignRequiresPublishedOrPaid)
		assert.Nil(t, stored.SignedAt)
	})

	t.Run("second sign rejected", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		now := time.Now().UTC()
		artifact := "sig-1"
		stored := payslip.Payslip{
			ID: uuid.New(), EmployeeID: uuid.New(),
			Status: payslip.StatusPaid, SignedAt: &now, SignatureArtifact: &artifact,
		}
		storeSlip(deps.repo, &stored)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Sign(ctx, stored.ID.String(), payslip.SignPayslipRequest{SignatureArtifact: "sig-2"})

		assert.ErrorIs(t, err, paysliperrors.ErrAlreadySigned)
		assert.Equal(t, "sig-1", *stored.SignatureArtifact)
	})

	t.Run("acknowledge requires signature", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		stored := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusPaid}
		storeSlip(deps.repo, &stored)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Acknowledge(ctx, "EMP-1", stored.ID.String())

		assert.ErrorIs(t, err, paysliperrors.ErrAcknowledgeRequiresSignature)
		assert.Equal(t, payslip.StatusPaid, stored.Status)
	})

	t.Run("acknowledge requires paid", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		now := time.Now().UTC()
		stored := payslip.Payslip{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusPublished, SignedAt: &now}
		storeSlip(deps.repo, &stored)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Acknowledge(ctx, "EMP-1", stored.ID.String())

		assert.ErrorIs(t, err, paysliperrors.ErrAcknowledgeRequiresPaid)
	})

	t.Run("unknown id is not found, not a guard violation", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Confirm(ctx, uuid.New().String())

		assert.ErrorIs(t, err, paysliperrors.ErrPayslipNotFound)
	})
}

func TestPayslipService_GetByStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid status filter rejected", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetByStatus(ctx, "SHREDDED")
		assert.ErrorIs(t, err, paysliperrors.ErrInvalidStatusFilter)
	})

	t.Run("returns repository rows", func(t *testing.T) {
		deps := setupPayslipServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllByStatusFn = func(ctx context.Context, status string) ([]payslip.Payslip, error) {
			assert.Equal(t, payslip.StatusPaid, status)
			return []payslip.Payslip{{ID: uuid.New(), EmployeeID: uuid.New(), Status: payslip.StatusPaid}}, nil
		}

		resp, err := deps.service.GetByStatus(ctx, payslip.StatusPaid)
		assert.NoError(t, err)
		assert.Len(t, resp, 1)
	})
}

func TestPayslipService_GenerateDocument(t *testing.T) {
	ctx := context.Background()

	docDir := filepath.Join(t.TempDir(), "docs")
	t.Setenv("PAYSLIP_DOC_DIR", docDir)

	deps := setupPayslipServiceTest(t)
	defer deps.db.Close()

	stored := payslip.Payslip{
		ID: uuid.New(), EmployeeID: uuid.New(),
		PeriodStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		GrossPay:    30000, NetPay: 27400,
		Status: payslip.StatusPublished,
	}
	storeSlip(deps.repo, &stored)

	resp, err := deps.service.GenerateDocument(ctx, stored.ID.String())
	assert.NoError(t, err)
	assert.NotNil(t, resp.DocumentURL)

	data, err := os.ReadFile(*resp.DocumentURL)
	assert.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))

	// Second call is idempotent: same artifact reference, no rewrite.
	firstURL := *resp.DocumentURL
	resp, err = deps.service.GenerateDocument(ctx, stored.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, firstURL, *resp.DocumentURL)
}
