package service

import (
	"context"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"
)

func (s *FeedbackService) view(ctx context.Context, viewer *models.Caller, item *models.Feedback) (*models.FeedbackView, error) {
	views, err := s.views(ctx, viewer, []models.Feedback{*item})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views populates user references with one lookup for the whole batch.
func (s *FeedbackService) views(ctx context.Context, viewer *models.Caller, items []models.Feedback) ([]models.FeedbackView, error) {
	var ids []string
	for i := range items {
		f := &items[i]
		showAuthor := canSeeAnonymousAuthor(viewer, f)
		if showAuthor {
			ids = append(ids, f.CreatedBy)
		}
		if f.AssignedTo != "" {
			ids = append(ids, f.AssignedTo)
		}
		for _, c := range f.Comments {
			if showAuthor || c.Author != f.CreatedBy {
				ids = append(ids, c.Author)
			}
		}
	}

	users := map[string]*models.User{}
	if len(ids) > 0 {
		var err error
		if users, err = s.users.FindByIDs(ctx, uniqueIDs(ids)); err != nil {
			return nil, utils.CreateStoreError(err)
		}
	}

	views := make([]models.FeedbackView, 0, len(items))
	for i := range items {
		views = append(views, s.project(viewer, &items[i], users))
	}
	return views, nil
}

func (s *FeedbackService) project(viewer *models.Caller, f *models.Feedback, users map[string]*models.User) models.FeedbackView {
	v := models.FeedbackView{
		ID:          f.ID.Hex(),
		Title:       f.Title,
		Description: f.Description,
		IsAnonymous: f.IsAnonymous,
		Category:    f.Category,
		Status:      f.Status,
		Comments:    make([]models.CommentView, 0, len(f.Comments)),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}

	showAuthor := canSeeAnonymousAuthor(viewer, f)
	if showAuthor {
		v.CreatedBy = summaryOf(f.CreatedBy, users)
	}
	if f.AssignedTo != "" {
		v.AssignedTo = summaryOf(f.AssignedTo, users)
	}
	if f.AssignedRole != "" {
		role := f.AssignedRole
		v.AssignedRole = &role
	}
	if f.Attachment != "" {
		ref := f.Attachment
		v.Attachment = &ref
		v.AttachmentURL = s.attachments.Resolve(ref)
	}
	for _, c := range f.Comments {
		cv := models.CommentView{Text: c.Text, CreatedAt: c.CreatedAt}
		// the creator's own comments would reveal an anonymous author
		if showAuthor || c.Author != f.CreatedBy {
			cv.User = summaryOf(c.Author, users)
		}
		v.Comments = append(v.Comments, cv)
	}
	return v
}

// summaryOf falls back to a bare id when the user no longer exists.
func summaryOf(id string, users map[string]*models.User) *models.UserSummary {
	if u, ok := users[id]; ok {
		return u.Summary()
	}
	return &models.UserSummary{ID: id}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
