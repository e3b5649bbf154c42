package app

import (
	"net/http"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/adjustment"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payrollrun"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/settlement"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// resetHandler truncates the ledger. Child tables go first so foreign keys
// never block the clear.
func resetHandler(
	payslipRepo payslip.Repository,
	payrollRunRepo payrollrun.Repository,
	adjustmentRepo adjustment.Repository,
	settlementRepo settlement.Repository,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		steps := []struct {
			name string
			fn   func() error
		}{
			{"adjustments", func() error { return adjustmentRepo.DeleteAll(ctx) }},
			{"settlements", func() error { return settlementRepo.DeleteAll(ctx) }},
			{"payroll_runs", func() error { return payrollRunRepo.DeleteAll(ctx) }},
			{"payslips", func() error { return payslipRepo.DeleteAll(ctx) }},
		}

		for _, step := range steps {
			if err := step.fn(); err != nil {
				zap.L().Error("ledger reset failed",
					zap.String("table", step.name),
					zap.Error(err),
				)
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "ledger reset failed", nil)
				return
			}
		}

		zap.L().Warn("ledger reset executed", zap.String("actor_id", c.GetString("user_id")))
		response.Success(c, http.StatusOK, gin.H{"reset": true}, nil)
	}
}
