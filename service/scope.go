package service

import "github.com/BerniceZTT/feedback_end/models"

var (
	// PrivilegedRoles may list all feedback, change status and assign.
	PrivilegedRoles = []models.UserRole{
		models.UserRoleADMIN,
		models.UserRoleMIT_COORDINATOR,
		models.UserRoleLECTURER,
	}

	// CategoryEditorRoles may change a feedback item's category.
	CategoryEditorRoles = []models.UserRole{
		models.UserRoleADMIN,
		models.UserRoleMIT_COORDINATOR,
	}

	// oversightRoles see every item and the global unassigned counter.
	oversightRoles = CategoryEditorRoles
)

// ResolveScope returns the feedback items caller may see. Listings and the
// dashboard both go through here. Roles outside the closed set get the
// caller's own items only.
func ResolveScope(caller *models.Caller) models.FeedbackScope {
	if caller == nil || caller.ID == "" {
		return models.FeedbackScope{}
	}

	switch {
	case caller.Role.In(oversightRoles...):
		return models.FeedbackScope{All: true}
	case caller.Role == models.UserRoleLECTURER:
		return models.FeedbackScope{CreatedBy: caller.ID, AssignedTo: caller.ID}
	default:
		return models.FeedbackScope{CreatedBy: caller.ID}
	}
}

// CanListAll reports whether role may list every feedback item.
func CanListAll(role models.UserRole) bool {
	return role.In(PrivilegedRoles...)
}

// CanChangeStatus reports whether role may set an item's status.
func CanChangeStatus(role models.UserRole) bool {
	return role.In(PrivilegedRoles...)
}

// CanAssign reports whether role may assign an item.
func CanAssign(role models.UserRole) bool {
	return role.In(PrivilegedRoles...)
}

// CanEditCategory reports whether role may recategorise an item.
func CanEditCategory(role models.UserRole) bool {
	return role.In(CategoryEditorRoles...)
}

// canSeeAnonymousAuthor reports whether viewer may see who wrote item.
func canSeeAnonymousAuthor(viewer *models.Caller, item *models.Feedback) bool {
	if !item.IsAnonymous {
		return true
	}
	return viewer != nil && (viewer.ID == item.CreatedBy || viewer.Role.In(oversightRoles...))
}
