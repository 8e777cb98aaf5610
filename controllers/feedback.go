package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/service"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
)

// multipart memory kept before spilling to temp files
const multipartMemory = 8 << 20

// FeedbackController serves /api/feedback.
type FeedbackController struct {
	svc            *service.FeedbackService
	maxUploadBytes int64
}

// NewFeedbackController builds the controller. maxUploadBytes caps the whole
// request body of create and edit.
func NewFeedbackController(svc *service.FeedbackService, maxUploadBytes int64) *FeedbackController {
	return &FeedbackController{svc: svc, maxUploadBytes: maxUploadBytes}
}

// feedbackForm is the create and edit body in either encoding.
type feedbackForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// readFeedbackForm decodes a multipart, urlencoded or JSON body and opens the
// optional attachment. The returned closer must run after the service call.
func (h *FeedbackController) readFeedbackForm(c *gin.Context) (feedbackForm, *service.Upload, func(), error) {
	noop := func() {}
	var form feedbackForm

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&form); err != nil {
			return form, nil, noop, h.bodyError(err)
		}
		return form, nil, noop, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return form, nil, noop, h.bodyError(err)
	}
	form.Title = c.PostForm("title")
	form.Description = c.PostForm("description")
	form.Category = c.PostForm("category")
	form.IsAnonymous = c.PostForm("isAnonymous") == "true"

	header, err := c.FormFile("attachment")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return form, nil, noop, nil
		}
		return form, nil, noop, h.bodyError(err)
	}

	file, err := header.Open()
	if err != nil {
		return form, nil, noop, utils.CreateValidationError("Cannot read attachment: " + err.Error())
	}
	closer := func() {
		if err := file.Close(); err != nil {
			utils.Logger.Warn().Err(err).Msg("close attachment failed")
		}
	}
	return form, &service.Upload{Name: header.Filename, Body: file}, closer, nil
}

func (h *FeedbackController) bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return utils.CreateValidationError(fmt.Sprintf("Attachment exceeds %d MB", h.maxUploadBytes>>20))
	}
	return utils.BindingError(err)
}

// CreateFeedback submits a feedback item or suggestion.
func (h *FeedbackController) CreateFeedback(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	form, upload, closeUpload, err := h.readFeedbackForm(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer closeUpload()

	view, err := h.svc.Create(c.Request.Context(), caller, models.CreateFeedbackInput{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		IsAnonymous: form.IsAnonymous,
	}, upload)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetVisibleFeedback lists the items in the caller's scope.
func (h *FeedbackController) GetVisibleFeedback(c *gin.Context) {
	h.list(c, h.svc.ListVisible)
}

// GetAllFeedback lists every item.
func (h *FeedbackController) GetAllFeedback(c *gin.Context) {
	h.list(c, h.svc.ListAll)
}

// GetMyFeedback lists the caller's own items.
func (h *FeedbackController) GetMyFeedback(c *gin.Context) {
	h.list(c, h.svc.ListMine)
}

// GetAssignedToMe lists the items assigned to the caller.
func (h *FeedbackController) GetAssignedToMe(c *gin.Context) {
	h.list(c, h.svc.ListAssignedToMe)
}

type listFunc func(ctx context.Context, caller *models.Caller) ([]models.FeedbackView, error)

func (h *FeedbackController) list(c *gin.Context, fetch listFunc) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	items, err := fetch(c.Request.Context(), caller)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// UpdateStatus sets an item's status.
func (h *FeedbackController) UpdateStatus(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("Invalid or missing status"))
		return
	}

	view, err := h.svc.UpdateStatus(c.Request.Context(), caller, c.Param("id"), req.Status)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AssignFeedback assigns an item to a user.
func (h *FeedbackController) AssignFeedback(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var req models.AssignFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.BindingError(err))
		return
	}

	view, err := h.svc.Assign(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateFeedback edits the caller's own PENDING item.
func (h *FeedbackController) UpdateFeedback(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	form, upload, closeUpload, err := h.readFeedbackForm(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer closeUpload()

	patch := models.FeedbackPatch{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
	}
	view, err := h.svc.Edit(c.Request.Context(), caller, c.Param("id"), patch, upload)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteFeedback removes the caller's own PENDING item.
func (h *FeedbackController) DeleteFeedback(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback deleted successfully"})
}

// AddComment appends a comment. Served on both /comment and /comments.
func (h *FeedbackController) AddComment(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("Comment text is required"))
		return
	}

	view, err := h.svc.AddComment(c.Request.Context(), caller, c.Param("id"), req.Text)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateCategory recategorises an item.
func (h *FeedbackController) UpdateCategory(c *gin.Context) {
	caller, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateValidationError("Invalid category"))
		return
	}

	view, err := h.svc.UpdateCategory(c.Request.Context(), caller, c.Param("id"), req.Category)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
