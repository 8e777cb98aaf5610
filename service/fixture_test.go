package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/repository"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeAttachments struct {
	mu      sync.Mutex
	refs    []string
	deleted []string
}

func (f *fakeAttachments) Put(_ context.Context, name string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := fmt.Sprintf("%d%s", 1700000000000+len(f.refs), filepath.Ext(name))
	f.refs = append(f.refs, ref)
	return ref, nil
}

func (f *fakeAttachments) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeAttachments) Resolve(ref string) string {
	return "/uploads/feedback/" + ref
}

type fixture struct {
	svc         *FeedbackService
	feedbacks   *repository.MemoryFeedbackRepository
	users       *repository.MemoryUserRepository
	attachments *fakeAttachments
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		feedbacks:   repository.NewMemoryFeedbackRepository(),
		users:       repository.NewMemoryUserRepository(),
		attachments: &fakeAttachments{},
	}
	f.svc = NewFeedbackService(f.feedbacks, f.users, f.attachments)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role models.UserRole) *models.Caller {
	t.Helper()
	u := &models.User{
		Name:     name,
		Username: name,
		Email:    name + "@example.edu",
		Role:     role,
	}
	require.NoError(t, f.users.Insert(context.Background(), u))
	return &models.Caller{ID: u.ID.Hex(), Username: name, Role: role}
}

// seed stores an item directly, bypassing the service.
func (f *fixture) seed(t *testing.T, createdBy, assignedTo string, status models.FeedbackStatus, createdAt time.Time) *models.Feedback {
	t.Helper()
	item := &models.Feedback{
		ID:          primitive.NewObjectID(),
		Title:       "seeded",
		Description: "seeded item",
		CreatedBy:   createdBy,
		AssignedTo:  assignedTo,
		Category:    models.FeedbackCategoryFEEDBACK,
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, f.feedbacks.Insert(context.Background(), item))
	return item
}

func (f *fixture) create(t *testing.T, caller *models.Caller, title string) *models.FeedbackView {
	t.Helper()
	view, err := f.svc.Create(context.Background(), caller, models.CreateFeedbackInput{
		Title:       title,
		Description: title + " description",
	}, nil)
	require.NoError(t, err)
	return view
}

func feedbackIDs(items []models.Feedback) []string {
	out := make([]string, 0, len(items))
	for _, f := range items {
		out = append(out, f.ID.Hex())
	}
	return out
}
