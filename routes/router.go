package routes

import (
	"context"
	"net/http"

	"github.com/BerniceZTT/feedback_end/controllers"
	"github.com/BerniceZTT/feedback_end/middleware"
	"github.com/BerniceZTT/feedback_end/service"
	"github.com/BerniceZTT/feedback_end/storage"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Feedbacks     service.FeedbackStore
	Users         service.UserStore
	OperationLogs middleware.OperationLogStore
	Attachments   storage.AttachmentStore

	// UploadDir is served under /uploads/feedback when set.
	UploadDir      string
	MaxUploadBytes int64
	CORSOrigins    []string

	// DBStatus reports store health on /api/db-status.
	DBStatus func(ctx context.Context) (map[string]interface{}, error)
}

// Handlers groups the controllers.
type Handlers struct {
	Auth      *controllers.AuthController
	Users     *controllers.UserController
	Feedback  *controllers.FeedbackController
	Dashboard *controllers.DashboardController
}

// NewHandlers builds the services and controllers over deps.
func NewHandlers(deps Dependencies) *Handlers {
	feedbackSvc := service.NewFeedbackService(deps.Feedbacks, deps.Users, deps.Attachments)
	return &Handlers{
		Auth:      controllers.NewAuthController(service.NewAuthService(deps.Users)),
		Users:     controllers.NewUserController(service.NewUserService(deps.Users)),
		Feedback:  controllers.NewFeedbackController(feedbackSvc, deps.MaxUploadBytes),
		Dashboard: controllers.NewDashboardController(feedbackSvc),
	}
}

// NewRouter returns an engine with the middleware chain and every route.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(deps.CORSOrigins))
	router.Use(middleware.ErrorHandler())
	if deps.OperationLogs != nil {
		router.Use(middleware.OperationLoggerMiddleware(deps.OperationLogs))
	}

	RegisterRoutes(router, NewHandlers(deps), deps)
	return router
}

// RegisterRoutes mounts every route group.
func RegisterRoutes(router *gin.Engine, h *Handlers, deps Dependencies) {
	RegisterAuthRoutes(router, h.Auth)
	RegisterUserRoutes(router, h.Users)
	RegisterFeedbackRoutes(router, h.Feedback)
	RegisterDashboardRoutes(router, h.Dashboard)

	if deps.UploadDir != "" {
		router.Static(storage.PublicPrefix, deps.UploadDir)
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Feedback System API Running")
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/db-status", func(c *gin.Context) {
		if deps.DBStatus == nil {
			c.JSON(http.StatusOK, gin.H{"connected": true})
			return
		}
		status, err := deps.DBStatus(c.Request.Context())
		if err != nil {
			utils.HandleError(c, utils.CreateStoreError(err))
			return
		}
		c.JSON(http.StatusOK, status)
	})
}
