package routes

import (
	"github.com/BerniceZTT/feedback_end/controllers"
	"github.com/BerniceZTT/feedback_end/middleware"
	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/service"

	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes mounts /api/users.
func RegisterUserRoutes(router *gin.Engine, h *controllers.UserController) {
	users := router.Group("/api/users")
	users.Use(middleware.AuthMiddleware())

	adminOnly := middleware.RoleMiddleware(models.UserRoleADMIN)

	// ADMIN only
	users.GET("", adminOnly, h.GetAllUsers)
	users.GET("/", adminOnly, h.GetAllUsers)
	users.POST("", adminOnly, h.CreateUser)
	users.POST("/", adminOnly, h.CreateUser)

	users.GET("/me", h.GetMe)

	// assignee picker
	users.GET("/role/:role", middleware.RoleMiddleware(service.PrivilegedRoles...), h.GetUsersByRole)
}
