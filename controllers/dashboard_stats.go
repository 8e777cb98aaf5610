package controllers

import (
	"net/http"

	"github.com/BerniceZTT/feedback_end/service"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
)

// DashboardController serves /api/dashboard.
type DashboardController struct {
	svc *service.FeedbackService
}

// NewDashboardController builds the controller.
func NewDashboardController(svc *service.FeedbackService) *DashboardController {
	return &DashboardController{svc: svc}
}

// GetDashboardData returns the caller's metrics, chart data and recent items.
func (h *DashboardController) GetDashboardData(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	data, err := h.svc.Dashboard(c.Request.Context(), caller)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Logger.Debug().
		Str("userId", caller.ID).
		Str("role", string(caller.Role)).
		Int("total", data.Metrics.Total).
		Msg("dashboard computed")

	c.JSON(http.StatusOK, data)
}
