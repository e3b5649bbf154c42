package payrollrun

import (
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	runs := r.Group("/payroll-runs")
	runs.Use(middleware.AuthMiddleware())
	{
		runs.POST("",
			middleware.RateLimitByUser(1, 5),
			handler.CreateDraft,
		)
		runs.POST("/:date/validate",
			middleware.RateLimitByUser(2, 5),
			handler.Validate,
		)
		runs.POST("/:date/lock",
			middleware.RateLimitByUser(1, 5),
			handler.Lock,
		)
		runs.POST("/:date/publish",
			middleware.RateLimitByUser(1, 5),
			handler.Publish,
		)
		runs.POST("/:date/paid",
			middleware.RateLimitByUser(1, 5),
			handler.MarkPaid,
		)
		runs.GET("/:date",
			middleware.RateLimitByUser(5, 10),
			handler.Get,
		)
		runs.GET("/:date/bank-file",
			middleware.RateLimitByUser(2, 5),
			handler.ExportBankFile,
		)
	}
}
