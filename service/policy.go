package service

import (
	"fmt"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"
)

// OwnerAction is a mutation reserved to an item's creator while PENDING.
type OwnerAction string

const (
	ActionEdit   OwnerAction = "edit"
	ActionDelete OwnerAction = "delete"
)

// CheckOwnerMutation allows action only for the creator of a PENDING item.
// A different caller gets a permission error, a reviewed item a state
// conflict.
func CheckOwnerMutation(caller *models.Caller, item *models.Feedback, action OwnerAction) error {
	if caller == nil || item.CreatedBy != caller.ID {
		return utils.CreateForbiddenError("Not authorized")
	}
	if item.Status != models.FeedbackStatusPENDING {
		return utils.CreateStateConflictError(fmt.Sprintf("Cannot %s feedback after review", action))
	}
	return nil
}

// ownerGuard is the store-side form of CheckOwnerMutation.
func ownerGuard(caller *models.Caller) models.FeedbackGuard {
	return models.FeedbackGuard{CreatedBy: caller.ID, Status: models.FeedbackStatusPENDING}
}

// ParseStatus accepts exactly the enumerated statuses.
func ParseStatus(raw string) (models.FeedbackStatus, error) {
	status := models.FeedbackStatus(raw)
	if !status.Valid() {
		return "", utils.CreateValidationError("Invalid or missing status")
	}
	return status, nil
}

// parseAssignedRole validates the optional role label of an assignment.
func parseAssignedRole(raw string) (models.UserRole, error) {
	if raw == "" {
		return "", nil
	}
	role, ok := models.ParseUserRole(raw)
	if !ok || !role.In(models.AssignableRoles...) {
		return "", utils.CreateValidationError("Invalid assigned role")
	}
	return role, nil
}

func parseCategory(raw string) (models.FeedbackCategory, error) {
	category, ok := models.ParseFeedbackCategory(raw)
	if !ok {
		return "", utils.CreateValidationError("Invalid category")
	}
	return category, nil
}
