package service

import (
	"context"
	"errors"
	"io"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/repository"
	"github.com/BerniceZTT/feedback_end/utils"
)

// FeedbackStore is implemented by repository.FeedbackRepository and its
// in-memory counterpart. Update and Delete apply only while the guard holds
// and report repository.ErrNotFound otherwise.
type FeedbackStore interface {
	Insert(ctx context.Context, f *models.Feedback) error
	FindByID(ctx context.Context, id string) (*models.Feedback, error)
	Find(ctx context.Context, scope models.FeedbackScope) ([]models.Feedback, error)
	Count(ctx context.Context, scope models.FeedbackScope) (int64, error)
	Update(ctx context.Context, id string, guard models.FeedbackGuard, upd models.FeedbackUpdate) (*models.Feedback, error)
	AppendComment(ctx context.Context, id string, c models.Comment) (*models.Feedback, error)
	Delete(ctx context.Context, id string, guard models.FeedbackGuard) error
}

// UserStore is implemented by repository.UserRepository and its in-memory
// counterpart.
type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

// Upload is an attachment received with a create or edit request.
type Upload struct {
	Name string
	Body io.Reader
}

// storeError maps a repository failure onto the error taxonomy.
func storeError(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.CreateNotFoundError(resource)
	}
	return utils.CreateStoreError(err)
}
