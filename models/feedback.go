package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackStatus is the lifecycle state of a feedback item.
type FeedbackStatus string

const (
	FeedbackStatusPENDING  FeedbackStatus = "PENDING"
	FeedbackStatusREVIEWED FeedbackStatus = "REVIEWED"
	FeedbackStatusRESOLVED FeedbackStatus = "RESOLVED"
)

// AllFeedbackStatuses lists every status in lifecycle order.
var AllFeedbackStatuses = []FeedbackStatus{
	FeedbackStatusPENDING,
	FeedbackStatusREVIEWED,
	FeedbackStatusRESOLVED,
}

// Valid reports whether s is one of the enumerated statuses.
func (s FeedbackStatus) Valid() bool {
	for _, known := range AllFeedbackStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// FeedbackCategory distinguishes feedback from suggestions.
type FeedbackCategory string

const (
	FeedbackCategoryFEEDBACK   FeedbackCategory = "FEEDBACK"
	FeedbackCategorySUGGESTION FeedbackCategory = "SUGGESTION"
)

// Valid reports whether c is FEEDBACK or SUGGESTION.
func (c FeedbackCategory) Valid() bool {
	return c == FeedbackCategoryFEEDBACK || c == FeedbackCategorySUGGESTION
}

// ParseFeedbackCategory upper-cases and validates a category value.
func ParseFeedbackCategory(raw string) (FeedbackCategory, bool) {
	c := FeedbackCategory(strings.ToUpper(strings.TrimSpace(raw)))
	return c, c.Valid()
}

// AssignableRoles are the role labels an assignment may carry.
var AssignableRoles = []UserRole{UserRoleLECTURER, UserRoleMIT_COORDINATOR, UserRoleADMIN}

// Comment is an entry in a feedback item's thread.
type Comment struct {
	Text      string    `bson:"text" json:"text"`
	Author    string    `bson:"user" json:"user"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Feedback is a feedback or suggestion item with its embedded comments.
type Feedback struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	CreatedBy    string             `bson:"createdBy" json:"createdBy"`
	IsAnonymous  bool               `bson:"isAnonymous" json:"isAnonymous"`
	Category     FeedbackCategory   `bson:"category" json:"category"`
	Status       FeedbackStatus     `bson:"status" json:"status"`
	Attachment   string             `bson:"attachment,omitempty" json:"attachment,omitempty"`
	AssignedTo   string             `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedRole UserRole           `bson:"assignedRole,omitempty" json:"assignedRole,omitempty"`
	Comments     []Comment          `bson:"comments" json:"comments"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FeedbackScope restricts which feedback items a query returns. An item
// matches when All is set or any populated condition holds. The zero value
// matches nothing.
type FeedbackScope struct {
	All        bool
	CreatedBy  string
	AssignedTo string
	Unassigned bool
}

// IsEmpty reports whether the scope can match no item at all.
func (s FeedbackScope) IsEmpty() bool {
	return !s.All && s.CreatedBy == "" && s.AssignedTo == "" && !s.Unassigned
}

// Matches evaluates the scope against a single item.
func (s FeedbackScope) Matches(f *Feedback) bool {
	if f == nil {
		return false
	}
	if s.All {
		return true
	}
	if s.CreatedBy != "" && f.CreatedBy == s.CreatedBy {
		return true
	}
	if s.AssignedTo != "" && f.AssignedTo == s.AssignedTo {
		return true
	}
	return s.Unassigned && f.AssignedTo == ""
}

// FeedbackPatch carries the fields an owner edit may change. Empty strings
// keep the current value.
type FeedbackPatch struct {
	Title       string
	Description string
	Category    string
}

// CommentView is a comment with its author populated.
type CommentView struct {
	Text      string       `json:"text"`
	User      *UserSummary `json:"user"`
	CreatedAt time.Time    `json:"createdAt"`
}

// FeedbackView is the populated response shape of a feedback item.
type FeedbackView struct {
	ID            string           `json:"_id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	CreatedBy     *UserSummary     `json:"createdBy"`
	IsAnonymous   bool             `json:"isAnonymous"`
	Category      FeedbackCategory `json:"category"`
	Status        FeedbackStatus   `json:"status"`
	Attachment    *string          `json:"attachment"`
	AttachmentURL string           `json:"attachmentUrl,omitempty"`
	AssignedTo    *UserSummary     `json:"assignedTo"`
	AssignedRole  *UserRole        `json:"assignedRole"`
	Comments      []CommentView    `json:"comments"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

type (
	// UpdateStatusRequest is the body of PATCH /feedback/:id/status.
	UpdateStatusRequest struct {
		Status string `json:"status"`
	}

	// AssignFeedbackRequest is the body of PUT /feedback/:id/assign.
	AssignFeedbackRequest struct {
		Role     string `json:"role"`
		Assignee string `json:"assignee"`
	}

	// AddCommentRequest is the body of POST /feedback/:id/comment.
	AddCommentRequest struct {
		Text string `json:"text"`
	}

	// UpdateCategoryRequest is the body of PUT /feedback/:id/category.
	UpdateCategoryRequest struct {
		Category string `json:"category"`
	}

	// CreateFeedbackInput is the decoded create form.
	CreateFeedbackInput struct {
		Title       string
		Description string
		Category    string
		IsAnonymous bool
	}
)

// FeedbackUpdate lists the fields a store update sets. Nil fields are left
// untouched; an empty AssignedRole clears the label.
type FeedbackUpdate struct {
	Title        *string
	Description  *string
	Category     *FeedbackCategory
	Status       *FeedbackStatus
	Attachment   *string
	AssignedTo   *string
	AssignedRole *UserRole
}

// IsEmpty reports whether the update changes nothing.
func (u FeedbackUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Status == nil &&
		u.Attachment == nil && u.AssignedTo == nil && u.AssignedRole == nil
}

// Apply writes the update onto f.
func (u FeedbackUpdate) Apply(f *Feedback) {
	if u.Title != nil {
		f.Title = *u.Title
	}
	if u.Description != nil {
		f.Description = *u.Description
	}
	if u.Category != nil {
		f.Category = *u.Category
	}
	if u.Status != nil {
		f.Status = *u.Status
	}
	if u.Attachment != nil {
		f.Attachment = *u.Attachment
	}
	if u.AssignedTo != nil {
		f.AssignedTo = *u.AssignedTo
	}
	if u.AssignedRole != nil {
		f.AssignedRole = *u.AssignedRole
	}
}

// FeedbackGuard narrows a conditional update or delete. The store only
// touches the item when every populated field still matches.
type FeedbackGuard struct {
	CreatedBy string
	Status    FeedbackStatus
}

// Holds reports whether f satisfies the guard.
func (g FeedbackGuard) Holds(f *Feedback) bool {
	if g.CreatedBy != "" && f.CreatedBy != g.CreatedBy {
		return false
	}
	if g.Status != "" && f.Status != g.Status {
		return false
	}
	return true
}
