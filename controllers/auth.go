package controllers

import (
	"net/http"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/service"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
)

// AuthController serves /api/auth.
type AuthController struct {
	svc *service.AuthService
}

// NewAuthController builds the controller.
func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{svc: svc}
}

// Register creates a self-service account and returns a token for it.
func (h *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.BindingError(err))
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login exchanges credentials for a token.
func (h *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.BindingError(err))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ValidateToken confirms the token and returns its user.
func (h *AuthController) ValidateToken(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.svc.Validate(c.Request.Context(), caller)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}
