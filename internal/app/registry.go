package app

import (
	"database/sql"
	"os"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/adjustment"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/employee"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/messaging/kafka"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/middleware"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payrollrun"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payschedule"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/payslip"
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/settlement"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	outboxRepo := kafka.NewOutboxRepository(db)
	employeeRepo := employee.NewRepository(gormDB)
	payslipRepo := payslip.NewRepository(gormDB)
	payrollRunRepo := payrollrun.NewRepository(gormDB)
	adjustmentRepo := adjustment.NewRepository(gormDB)
	settlementRepo := settlement.NewRepository(gormDB)
	payScheduleRepo := payschedule.NewRepository(gormDB)

	// --- Services ---
	payslipService := payslip.NewServiceWithDeps(db, payslipRepo, outboxRepo, rdb)
	payrollRunService := payrollrun.NewService(db, payrollRunRepo, payslipRepo, employeeRepo, outboxRepo)
	adjustmentService := adjustment.NewService(db, adjustmentRepo, payslipRepo, outboxRepo)
	settlementService := settlement.NewService(db, settlementRepo, payslipRepo, employeeRepo, outboxRepo)
	payScheduleService := payschedule.NewService(payScheduleRepo)

	// --- Handlers ---
	payslipHandler := payslip.NewHandlerWithRedis(payslipService, rdb)
	payrollRunHandler := payrollrun.NewHandler(payrollRunService)
	adjustmentHandler := adjustment.NewHandlerWithRedis(adjustmentService, rdb)
	settlementHandler := settlement.NewHandler(settlementService)
	payScheduleHandler := payschedule.NewHandler(payScheduleService)

	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(20, 40))
	{
		payslip.RegisterRoutes(api, payslipHandler, rdb)
		payrollrun.RegisterRoutes(api, payrollRunHandler)
		adjustment.RegisterRoutes(api, adjustmentHandler, rdb)
		settlement.RegisterRoutes(api, settlementHandler)
		payschedule.RegisterRoutes(api, payScheduleHandler)
	}

	// Demo/test environments only: the single bulk-clear path for the ledger.
	if os.Getenv("ENABLE_DEMO_RESET") == "true" {
		admin := router.Group("/admin")
		admin.Use(middleware.AuthMiddleware())
		admin.POST("/reset", resetHandler(
			payslipRepo,
			payrollRunRepo,
			adjustmentRepo,
			settlementRepo,
		))
	}

	return nil
}
