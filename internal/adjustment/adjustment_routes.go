package adjustment

import (
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	adjustments := r.Group("/adjustments")
	adjustments.Use(middleware.AuthMiddleware())
	{
		adjustments.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.Idempotency(rdb),
			handler.Create,
		)
		adjustments.POST("/:id/approve",
			middleware.RateLimitByUser(2, 5),
			handler.Approve,
		)
		adjustments.POST("/:id/reject",
			middleware.RateLimitByUser(2, 5),
			handler.Reject,
		)
		adjustments.POST("/:id/apply",
			middleware.RateLimitByUser(1, 5),
			handler.Apply,
		)
		adjustments.GET("/run/:runId",
			middleware.RateLimitByUser(5, 10),
			handler.GetByRun,
		)
	}
}
