package routes

import (
	"github.com/BerniceZTT/feedback_end/controllers"
	"github.com/BerniceZTT/feedback_end/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterDashboardRoutes mounts /api/dashboard.
func RegisterDashboardRoutes(router *gin.Engine, h *controllers.DashboardController) {
	dashboard := router.Group("/api/dashboard")
	dashboard.Use(middleware.AuthMiddleware())

	dashboard.GET("", h.GetDashboardData)
}
