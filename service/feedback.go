package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/repository"
	"github.com/BerniceZTT/feedback_end/storage"
	"github.com/BerniceZTT/feedback_end/utils"
)

const feedbackResource = "Feedback"

// FeedbackService applies the scope and lifecycle rules on top of the
// feedback store.
type FeedbackService struct {
	feedbacks   FeedbackStore
	users       UserStore
	attachments storage.AttachmentStore
	now         func() time.Time
}

// NewFeedbackService wires the service.
func NewFeedbackService(feedbacks FeedbackStore, users UserStore, attachments storage.AttachmentStore) *FeedbackService {
	return &FeedbackService{
		feedbacks:   feedbacks,
		users:       users,
		attachments: attachments,
		now:         time.Now,
	}
}

// Create stores a new PENDING item authored by caller.
func (s *FeedbackService) Create(ctx context.Context, caller *models.Caller, in models.CreateFeedbackInput, file *Upload) (*models.FeedbackView, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, utils.CreateValidationError("Title and description are required")
	}

	category := models.FeedbackCategoryFEEDBACK
	if strings.TrimSpace(in.Category) != "" {
		var err error
		if category, err = parseCategory(in.Category); err != nil {
			return nil, err
		}
	}

	attachment, err := s.storeUpload(ctx, file)
	if err != nil {
		return nil, err
	}

	now := s.now()
	item := &models.Feedback{
		Title:       title,
		Description: description,
		CreatedBy:   caller.ID,
		IsAnonymous: in.IsAnonymous,
		Category:    category,
		Status:      models.FeedbackStatusPENDING,
		Attachment:  attachment,
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.feedbacks.Insert(ctx, item); err != nil {
		s.discardUpload(ctx, attachment)
		return nil, utils.CreateStoreError(err)
	}

	utils.Logger.Info().
		Str("feedbackId", item.ID.Hex()).
		Str("userId", caller.ID).
		Str("category", string(category)).
		Msg("feedback created")

	return s.view(ctx, caller, item)
}

// ListVisible returns every item in caller's scope.
func (s *FeedbackService) ListVisible(ctx context.Context, caller *models.Caller) ([]models.FeedbackView, error) {
	return s.list(ctx, caller, ResolveScope(caller))
}

// ListAll returns every item. Only privileged roles may call it.
func (s *FeedbackService) ListAll(ctx context.Context, caller *models.Caller) ([]models.FeedbackView, error) {
	if !CanListAll(caller.Role) {
		return nil, utils.CreateForbiddenError("")
	}
	return s.list(ctx, caller, models.FeedbackScope{All: true})
}

// ListMine returns the items caller created.
func (s *FeedbackService) ListMine(ctx context.Context, caller *models.Caller) ([]models.FeedbackView, error) {
	return s.list(ctx, caller, models.FeedbackScope{CreatedBy: caller.ID})
}

// ListAssignedToMe returns the items assigned to caller.
func (s *FeedbackService) ListAssignedToMe(ctx context.Context, caller *models.Caller) ([]models.FeedbackView, error) {
	return s.list(ctx, caller, models.FeedbackScope{AssignedTo: caller.ID})
}

func (s *FeedbackService) list(ctx context.Context, caller *models.Caller, scope models.FeedbackScope) ([]models.FeedbackView, error) {
	items, err := s.feedbacks.Find(ctx, scope)
	if err != nil {
		return nil, utils.CreateStoreError(err)
	}
	return s.views(ctx, caller, items)
}

// UpdateStatus sets the item's status. Any enumerated status may follow any
// other.
func (s *FeedbackService) UpdateStatus(ctx context.Context, caller *models.Caller, id, rawStatus string) (*models.FeedbackView, error) {
	if !CanChangeStatus(caller.Role) {
		return nil, utils.CreateForbiddenError("")
	}
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	item, err := s.feedbacks.Update(ctx, id, models.FeedbackGuard{}, models.FeedbackUpdate{Status: &status})
	if err != nil {
		return nil, storeError(err, feedbackResource)
	}

	utils.Logger.Info().
		Str("feedbackId", id).
		Str("status", string(status)).
		Str("userId", caller.ID).
		Msg("feedback status updated")

	return s.view(ctx, caller, item)
}

// Assign points the item at a user. The role label is display-only.
func (s *FeedbackService) Assign(ctx context.Context, caller *models.Caller, id string, req models.AssignFeedbackRequest) (*models.FeedbackView, error) {
	if !CanAssign(caller.Role) {
		return nil, utils.CreateForbiddenError("")
	}
	assignee := strings.TrimSpace(req.Assignee)
	if assignee == "" {
		return nil, utils.CreateValidationError("assignee is required")
	}
	role, err := parseAssignedRole(strings.TrimSpace(req.Role))
	if err != nil {
		return nil, err
	}

	upd := models.FeedbackUpdate{AssignedTo: &assignee, AssignedRole: &role}
	item, err := s.feedbacks.Update(ctx, id, models.FeedbackGuard{}, upd)
	if err != nil {
		return nil, storeError(err, feedbackResource)
	}

	utils.Logger.Info().
		Str("feedbackId", id).
		Str("assignee", assignee).
		Str("userId", caller.ID).
		Msg("feedback assigned")

	return s.view(ctx, caller, item)
}

// Edit changes the creator's own PENDING item. Empty fields keep their value
// and a new upload replaces the attachment.
func (s *FeedbackService) Edit(ctx context.Context, caller *models.Caller, id string, patch models.FeedbackPatch, file *Upload) (*models.FeedbackView, error) {
	current, err := s.feedbacks.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, feedbackResource)
	}
	if err := CheckOwnerMutation(caller, current, ActionEdit); err != nil {
		return nil, err
	}

	var upd models.FeedbackUpdate
	if title := strings.TrimSpace(patch.Title); title != "" {
		upd.Title = &title
	}
	if description := strings.TrimSpace(patch.Description); description != "" {
		upd.Description = &description
	}
	if strings.TrimSpace(patch.Category) != "" {
		category, err := parseCategory(patch.Category)
		if err != nil {
			return nil, err
		}
		upd.Category = &category
	}

	attachment, err := s.storeUpload(ctx, file)
	if err != nil {
		return nil, err
	}
	if attachment != "" {
		upd.Attachment = &attachment
	}

	if upd.IsEmpty() {
		return s.view(ctx, caller, current)
	}

	item, err := s.feedbacks.Update(ctx, id, ownerGuard(caller), upd)
	if err != nil {
		s.discardUpload(ctx, attachment)
		return nil, s.guardFailure(ctx, caller, id, ActionEdit, err)
	}

	utils.Logger.Info().Str("feedbackId", id).Str("userId", caller.ID).Msg("feedback edited")
	return s.view(ctx, caller, item)
}

// Delete removes the creator's own PENDING item. Its attachment stays in
// storage.
func (s *FeedbackService) Delete(ctx context.Context, caller *models.Caller, id string) error {
	current, err := s.feedbacks.FindByID(ctx, id)
	if err != nil {
		return storeError(err, feedbackResource)
	}
	if err := CheckOwnerMutation(caller, current, ActionDelete); err != nil {
		return err
	}

	if err := s.feedbacks.Delete(ctx, id, ownerGuard(caller)); err != nil {
		return s.guardFailure(ctx, caller, id, ActionDelete, err)
	}

	utils.Logger.Info().Str("feedbackId", id).Str("userId", caller.ID).Msg("feedback deleted")
	return nil
}

// guardFailure explains a rejected conditional write. The item may have been
// reviewed or removed between the check and the write.
func (s *FeedbackService) guardFailure(ctx context.Context, caller *models.Caller, id string, action OwnerAction, err error) error {
	if !errors.Is(err, repository.ErrNotFound) {
		return utils.CreateStoreError(err)
	}
	latest, findErr := s.feedbacks.FindByID(ctx, id)
	if findErr != nil {
		return storeError(findErr, feedbackResource)
	}
	if policyErr := CheckOwnerMutation(caller, latest, action); policyErr != nil {
		return policyErr
	}
	return utils.CreateStateConflictError("Feedback changed concurrently, retry")
}

// AddComment appends a comment by caller. Any authenticated caller may
// comment on any item.
func (s *FeedbackService) AddComment(ctx context.Context, caller *models.Caller, id, text string) (*models.FeedbackView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.CreateValidationError("Comment text is required")
	}

	comment := models.Comment{
		Text:      text,
		Author:    caller.ID,
		CreatedAt: s.now(),
	}
	item, err := s.feedbacks.AppendComment(ctx, id, comment)
	if err != nil {
		return nil, storeError(err, feedbackResource)
	}

	utils.Logger.Info().Str("feedbackId", id).Str("userId", caller.ID).Msg("comment added")
	return s.view(ctx, caller, item)
}

// UpdateCategory recategorises an item regardless of status.
func (s *FeedbackService) UpdateCategory(ctx context.Context, caller *models.Caller, id, rawCategory string) (*models.FeedbackView, error) {
	if !CanEditCategory(caller.Role) {
		return nil, utils.CreateForbiddenError("")
	}
	category, err := parseCategory(rawCategory)
	if err != nil {
		return nil, err
	}

	item, err := s.feedbacks.Update(ctx, id, models.FeedbackGuard{}, models.FeedbackUpdate{Category: &category})
	if err != nil {
		return nil, storeError(err, feedbackResource)
	}
	return s.view(ctx, caller, item)
}

// Dashboard aggregates caller's scope. The unassigned and assigned-to-me
// counters are global and only computed for the roles that see them.
func (s *FeedbackService) Dashboard(ctx context.Context, caller *models.Caller) (*models.DashboardDataResponse, error) {
	scoped, err := s.feedbacks.Find(ctx, ResolveScope(caller))
	if err != nil {
		return nil, utils.CreateStoreError(err)
	}

	var global GlobalCounts
	if wantsUnassignedCount(caller.Role) {
		if global.Unassigned, err = s.feedbacks.Count(ctx, models.FeedbackScope{Unassigned: true}); err != nil {
			return nil, utils.CreateStoreError(err)
		}
	}
	if wantsAssignedToMeCount(caller.Role) {
		if global.AssignedToMe, err = s.feedbacks.Count(ctx, models.FeedbackScope{AssignedTo: caller.ID}); err != nil {
			return nil, utils.CreateStoreError(err)
		}
	}

	creators := make([]string, 0, len(scoped))
	for _, f := range scoped {
		if !f.IsAnonymous {
			creators = append(creators, f.CreatedBy)
		}
	}
	authors, err := s.users.FindByIDs(ctx, uniqueIDs(creators))
	if err != nil {
		return nil, utils.CreateStoreError(err)
	}

	data := ComputeMetrics(scoped, caller, global, authors)
	return &data, nil
}

func (s *FeedbackService) storeUpload(ctx context.Context, file *Upload) (string, error) {
	if file == nil || file.Body == nil {
		return "", nil
	}
	ref, err := s.attachments.Put(ctx, file.Name, file.Body)
	if err != nil {
		return "", utils.CreateStoreError(err)
	}
	return ref, nil
}

// discardUpload removes an attachment whose item write failed. Cleanup errors
// are logged only; the write error is what the caller sees.
func (s *FeedbackService) discardUpload(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.attachments.Delete(context.WithoutCancel(ctx), ref); err != nil {
		utils.Logger.Warn().Err(err).Str("attachment", ref).Msg("discard orphaned attachment failed")
	}
}
