package payslip

import (
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb *redis.Client,
) {
	slips := r.Group("/payslips")
	slips.Use(middleware.AuthMiddleware())
	{
		slips.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.Idempotency(rdb),
			handler.Issue,
		)
		slips.POST("/:id/confirm",
			middleware.RateLimitByUser(2, 5),
			handler.Confirm,
		)
		slips.POST("/:id/publish",
			middleware.RateLimitByUser(2, 5),
			handler.Publish,
		)
		slips.POST("/:id/payment",
			middleware.RateLimitByUser(1, 5),
			handler.RecordPayment,
		)
		slips.POST("/:id/sign",
			middleware.RateLimitByUser(1, 5),
			handler.Sign,
		)
		slips.POST("/:id/acknowledge",
			middleware.RateLimitByUser(1, 5),
			handler.Acknowledge,
		)
		slips.GET("/employee/:employeeId",
			middleware.RateLimitByUser(5, 10),
			handler.GetByEmployee,
		)
		slips.GET("/status/:status",
			middleware.RateLimitByUser(5, 10),
			handler.GetByStatus,
		)
	}
}
