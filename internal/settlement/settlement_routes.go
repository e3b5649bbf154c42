package settlement

import (
	"github.com/mozhdeveloper/NexHRMS-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	settlements := r.Group("/settlements")
	settlements.Use(middleware.AuthMiddleware())
	{
		settlements.POST("/final-pay",
			middleware.RateLimitByUser(1, 5),
			handler.ComputeFinalPay,
		)
		settlements.GET("/final-pay/:employeeId",
			middleware.RateLimitByUser(5, 10),
			handler.GetFinalPay,
		)
		settlements.POST("/thirteenth-month",
			middleware.RateLimitByUser(1, 5),
			handler.GenerateThirteenthMonth,
		)
	}
}
