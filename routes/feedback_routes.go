package routes

import (
	"github.com/BerniceZTT/feedback_end/controllers"
	"github.com/BerniceZTT/feedback_end/middleware"
	"github.com/BerniceZTT/feedback_end/service"

	"github.com/gin-gonic/gin"
)

// RegisterFeedbackRoutes mounts /api/feedback.
func RegisterFeedbackRoutes(router *gin.Engine, h *controllers.FeedbackController) {
	feedback := router.Group("/api/feedback")
	feedback.Use(middleware.AuthMiddleware())

	privileged := middleware.RoleMiddleware(service.PrivilegedRoles...)
	categoryEditors := middleware.RoleMiddleware(service.CategoryEditorRoles...)

	feedback.POST("", h.CreateFeedback)
	feedback.POST("/", h.CreateFeedback)
	feedback.GET("", h.GetVisibleFeedback)
	feedback.GET("/", h.GetVisibleFeedback)

	feedback.GET("/allfeeds", privileged, h.GetAllFeedback)
	feedback.GET("/myfeeds", h.GetMyFeedback)
	feedback.GET("/assigned/me", h.GetAssignedToMe)

	feedback.PATCH("/:id/status", privileged, h.UpdateStatus)
	feedback.PUT("/:id/assign", privileged, h.AssignFeedback)
	feedback.PUT("/:id/category", categoryEditors, h.UpdateCategory)

	// creator only, while PENDING
	feedback.PUT("/:id", h.UpdateFeedback)
	feedback.DELETE("/:id", h.DeleteFeedback)

	feedback.POST("/:id/comment", h.AddComment)
	feedback.POST("/:id/comments", h.AddComment)
}
