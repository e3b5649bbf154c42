package payschedule

import (
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	schedule := r.Group("/pay-schedule")
	schedule.Use(middleware.AuthMiddleware())
	{
		schedule.GET("",
			middleware.RateLimitByUser(5, 10),
			handler.Get,
		)
		schedule.PUT("",
			middleware.RateLimitByUser(1, 5),
			handler.Update,
		)
	}
}
