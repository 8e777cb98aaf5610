package controllers

import (
	"net/http"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/service"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
)

// UserController serves /api/users.
type UserController struct {
	svc *service.UserService
}

// NewUserController builds the controller.
func NewUserController(svc *service.UserService) *UserController {
	return &UserController{svc: svc}
}

// GetAllUsers lists every account without passwords.
func (h *UserController) GetAllUsers(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Logger.Info().Int("count", len(users)).Msg("users listed")
	c.JSON(http.StatusOK, users)
}

// GetMe returns the caller's profile.
func (h *UserController) GetMe(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.svc.Me(c.Request.Context(), caller)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUsersByRole lists the users holding :role, for picking an assignee.
func (h *UserController) GetUsersByRole(c *gin.Context) {
	users, err := h.svc.ByRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser adds an account with any role.
func (h *UserController) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.BindingError(err))
		return
	}

	user, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
