package routes

import (
	"github.com/BerniceZTT/feedback_end/controllers"
	"github.com/BerniceZTT/feedback_end/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes mounts /api/auth.
func RegisterAuthRoutes(router *gin.Engine, h *controllers.AuthController) {
	auth := router.Group("/api/auth")

	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)

	auth.GET("/validate", middleware.AuthMiddleware(), h.ValidateToken)
}
