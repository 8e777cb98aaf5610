package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackService_Create(t *testing.T) {
	fx := newFixture(t)
	student := fx.addUser(t, "student", models.UserRoleSTUDENT)
	ctx := context.Background()

	view, err := fx.svc.Create(ctx, student, models.CreateFeedbackInput{
		Title:       "  Broken projector ",
		Description: "Room 4B",
		IsAnonymous: true,
	}, &Upload{Name: "photo.JPG", Body: strings.NewReader("img")})
	require.NoError(t, err)

	assert.Equal(t, "Broken projector", view.Title)
	assert.Equal(t, models.FeedbackStatusPENDING, view.Status)
	assert.Equal(t, models.FeedbackCategoryFEEDBACK, view.Category)
	assert.True(t, view.IsAnonymous)
	require.NotNil(t, view.CreatedBy)
	assert.Equal(t, student.ID, view.CreatedBy.ID)
	require.NotNil(t, view.Attachment)
	assert.Equal(t, "1700000000000.JPG", *view.Attachment)
	assert.Equal(t, "/uploads/feedback/1700000000000.JPG", view.AttachmentURL)
	assert.Empty(t, view.Comments)
	assert.Nil(t, view.AssignedTo)
}

func TestFeedbackService_CreateValidation(t *testing.T) {
	fx := newFixture(t)
	student := fx.addUser(t, "student", models.UserRoleSTUDENT)

	tests := []struct {
		name string
		in   models.CreateFeedbackInput
	}{
		{"missing title", models.CreateFeedbackInput{Description: "d"}},
		{"blank description", models.CreateFeedbackInput{Title: "t", Description: "   "}},
		{"unknown category", models.CreateFeedbackInput{Title: "t", Description: "d", Category: "COMPLAINT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Create(context.Background(), student, tt.in, &Upload{Name: "a.txt", Body: strings.NewReader("x")})
			assert.True(t, utils.IsApiError(err, utils.ErrorCodeValidation), "got %v", err)
		})
	}

	// rejected requests never reach storage
	assert.Empty(t, fx.attachments.refs)

	view, err := fx.svc.Create(context.Background(), student, models.CreateFeedbackInput{
		Title: "t", Description: "d", Category: "suggestion",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackCategorySUGGESTION, view.Category)
	assert.Nil(t, view.Attachment)
}

func TestFeedbackService_EditAndDeletePreconditions(t *testing.T) {
	tests := []struct {
		name     string
		byOwner  bool
		status   models.FeedbackStatus
		wantCode string
	}{
		{"owner pending", true, models.FeedbackStatusPENDING, ""},
		{"owner reviewed", true, models.FeedbackStatusREVIEWED, utils.ErrorCodeStateConflict},
		{"owner resolved", true, models.FeedbackStatusRESOLVED, utils.ErrorCodeStateConflict},
		{"stranger pending", false, models.FeedbackStatusPENDING, utils.ErrorCodeForbidden},
		{"stranger resolved", false, models.FeedbackStatusRESOLVED, utils.ErrorCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t)
			owner := fx.addUser(t, "owner", models.UserRoleSTUDENT)
			stranger := fx.addUser(t, "stranger", models.UserRoleADMIN)
			caller := stranger
			if tt.byOwner {
				caller = owner
			}
			item := fx.seed(t, owner.ID, "", tt.status, time.Now())
			id := item.ID.Hex()

			view, err := fx.svc.Edit(ctx, caller, id, models.FeedbackPatch{Title: "changed"}, nil)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "changed", view.Title)
				assert.Equal(t, "seeded item", view.Description)
			} else {
				assert.True(t, utils.IsApiError(err, tt.wantCode), "edit: got %v", err)
				stored, findErr := fx.feedbacks.FindByID(ctx, id)
				require.NoError(t, findErr)
				assert.Equal(t, "seeded", stored.Title)
			}

			err = fx.svc.Delete(ctx, caller, id)
			if tt.wantCode == "" {
				require.NoError(t, err)
				_, findErr := fx.feedbacks.FindByID(ctx, id)
				assert.Error(t, findErr)
			} else {
				assert.True(t, utils.IsApiError(err, tt.wantCode), "delete: got %v", err)
				_, findErr := fx.feedbacks.FindByID(ctx, id)
				assert.NoError(t, findErr)
			}
		})
	}
}

func TestFeedbackService_EditMissingItem(t *testing.T) {
	fx := newFixture(t)
	owner := fx.addUser(t, "owner", models.UserRoleSTUDENT)

	_, err := fx.svc.Edit(context.Background(), owner, "64b7f0c2a1b2c3d4e5f60718", models.FeedbackPatch{Title: "x"}, nil)
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeNotFound))

	err = fx.svc.Delete(context.Background(), owner, "not-a-valid-id")
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeNotFound))
}

func TestFeedbackService_EditReplacesAttachmentAndKeepsEmptyFields(t *testing.T) {
	fx := newFixture(t)
	owner := fx.addUser(t, "owner", models.UserRoleSTUDENT)
	ctx := context.Background()
	created := fx.create(t, owner, "first")

	view, err := fx.svc.Edit(ctx, owner, created.ID, models.FeedbackPatch{Category: "SUGGESTION"},
		&Upload{Name: "scan.pdf", Body: strings.NewReader("pdf")})
	require.NoError(t, err)
	assert.Equal(t, "first", view.Title)
	assert.Equal(t, models.FeedbackCategorySUGGESTION, view.Category)
	require.NotNil(t, view.Attachment)
	assert.Equal(t, "1700000000000.pdf", *view.Attachment)

	_, err = fx.svc.Edit(ctx, owner, created.ID, models.FeedbackPatch{Category: "bogus"}, nil)
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeValidation))
}

// reviewingStore marks the item REVIEWED right before the guarded write,
// as a concurrent reviewer would.
type reviewingStore struct {
	FeedbackStore
}

func (s reviewingStore) Update(ctx context.Context, id string, guard models.FeedbackGuard, upd models.FeedbackUpdate) (*models.Feedback, error) {
	reviewed := models.FeedbackStatusREVIEWED
	if _, err := s.FeedbackStore.Update(ctx, id, models.FeedbackGuard{}, models.FeedbackUpdate{Status: &reviewed}); err != nil {
		return nil, err
	}
	return s.FeedbackStore.Update(ctx, id, guard, upd)
}

func (s reviewingStore) Delete(ctx context.Context, id string, guard models.FeedbackGuard) error {
	reviewed := models.FeedbackStatusREVIEWED
	if _, err := s.FeedbackStore.Update(ctx, id, models.FeedbackGuard{}, models.FeedbackUpdate{Status: &reviewed}); err != nil {
		return err
	}
	return s.FeedbackStore.Delete(ctx, id, guard)
}

func TestFeedbackService_GuardedWriteLosesRace(t *testing.T) {
	fx := newFixture(t)
	owner := fx.addUser(t, "owner", models.UserRoleSTUDENT)
	ctx := context.Background()
	racy := NewFeedbackService(reviewingStore{fx.feedbacks}, fx.users, fx.attachments)

	item := fx.seed(t, owner.ID, "", models.FeedbackStatusPENDING, time.Now())
	_, err := racy.Edit(ctx, owner, item.ID.Hex(), models.FeedbackPatch{Title: "late"}, nil)
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeStateConflict), "got %v", err)
	assert.EqualError(t, err, "Cannot edit feedback after review")

	stored, err := fx.feedbacks.FindByID(ctx, item.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "seeded", stored.Title)

	other := fx.seed(t, owner.ID, "", models.FeedbackStatusPENDING, time.Now())
	err = racy.Delete(ctx, owner, other.ID.Hex())
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeStateConflict), "got %v", err)
}

// failingInsertStore rejects every insert.
type failingInsertStore struct {
	FeedbackStore
}

func (failingInsertStore) Insert(context.Context, *models.Feedback) error {
	return errors.New("write concern error")
}

func TestFeedbackService_FailedWriteDiscardsUpload(t *testing.T) {
	fx := newFixture(t)
	owner := fx.addUser(t, "owner", models.UserRoleSTUDENT)
	ctx := context.Background()

	broken := NewFeedbackService(failingInsertStore{fx.feedbacks}, fx.users, fx.attachments)
	_, err := broken.Create(ctx, owner, models.CreateFeedbackInput{Title: "t", Description: "d"},
		&Upload{Name: "scan.pdf", Body: strings.NewReader("pdf")})
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeStore), "got %v", err)
	require.Len(t, fx.attachments.refs, 1)
	assert.Equal(t, fx.attachments.refs, fx.attachments.deleted)

	racy := NewFeedbackService(reviewingStore{fx.feedbacks}, fx.users, fx.attachments)
	item := fx.seed(t, owner.ID, "", models.FeedbackStatusPENDING, time.Now())
	_, err = racy.Edit(ctx, owner, item.ID.Hex(), models.FeedbackPatch{},
		&Upload{Name: "photo.png", Body: strings.NewReader("png")})
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeStateConflict), "got %v", err)
	require.Len(t, fx.attachments.refs, 2)
	assert.Equal(t, fx.attachments.refs, fx.attachments.deleted)

	// a successful edit keeps its upload
	fresh := fx.seed(t, owner.ID, "", models.FeedbackStatusPENDING, time.Now())
	_, err = fx.svc.Edit(ctx, owner, fresh.ID.Hex(), models.FeedbackPatch{},
		&Upload{Name: "ok.png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Len(t, fx.attachments.deleted, 2)
}

func TestFeedbackService_UpdateStatus(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	student := fx.addUser(t, "student", models.UserRoleSTUDENT)
	lecturer := fx.addUser(t, "lecturer", models.UserRoleLECTURER)
	item := fx.seed(t, student.ID, "", models.FeedbackStatusPENDING, time.Now())
	id := item.ID.Hex()

	for _, bad := range []string{"", "DONE", "resolved"} {
		_, err := fx.svc.UpdateStatus(ctx, lecturer, id, bad)
		assert.True(t, utils.IsApiError(err, utils.ErrorCodeValidation), bad)
	}
	stored, err := fx.feedbacks.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusPENDING, stored.Status)

	_, err = fx.svc.UpdateStatus(ctx, student, id, "RESOLVED")
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeForbidden))

	// any enumerated status may follow any other
	for _, status := range []string{"RESOLVED", "PENDING", "REVIEWED", "REVIEWED"} {
		view, err := fx.svc.UpdateStatus(ctx, lecturer, id, status)
		require.NoError(t, err)
		assert.Equal(t, models.FeedbackStatus(status), view.Status)
	}

	_, err = fx.svc.UpdateStatus(ctx, lecturer, "64b7f0c2a1b2c3d4e5f60718", "RESOLVED")
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeNotFound))
}

func TestFeedbackService_Assign(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	student := fx.addUser(t, "student", models.UserRoleSTUDENT)
	coordinator := fx.addUser(t, "coordinator", models.UserRoleMIT_COORDINATOR)
	lecturer := fx.addUser(t, "lecturer", models.UserRoleLECTURER)
	item := fx.seed(t, student.ID, "", models.FeedbackStatusREVIEWED, time.Now())
	id := item.ID.Hex()

	_, err := fx.svc.Assign(ctx, student, id, models.AssignFeedbackRequest{Assignee: lecturer.ID})
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeForbidden))

	_, err = fx.svc.Assign(ctx, coordinator, id, models.AssignFeedbackRequest{Role: "LECTURER"})
	assert.EqualError(t, err, "assignee is required")

	_, err = fx.svc.Assign(ctx, coordinator, id, models.AssignFeedbackRequest{Role: "PARENT", Assignee: lecturer.ID})
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeValidation))

	view, err := fx.svc.Assign(ctx, coordinator, id, models.AssignFeedbackRequest{Role: "LECTURER", Assignee: lecturer.ID})
	require.NoError(t, err)
	require.NotNil(t, view.AssignedTo)
	assert.Equal(t, "lecturer", view.AssignedTo.Name)
	require.NotNil(t, view.AssignedRole)
	assert.Equal(t, models.UserRoleLECTURER, *view.AssignedRole)

	view, err = fx.svc.Assign(ctx, coordinator, id, models.AssignFeedbackRequest{Assignee: coordinator.ID})
	require.NoError(t, err)
	assert.Nil(t, view.AssignedRole)

	mine, err := fx.svc.ListAssignedToMe(ctx, coordinator)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, id, mine[0].ID)
}

func TestFeedbackService_CommentsAppendInOrder(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	owner := fx.addUser(t, "owner", models.UserRoleSTUDENT)
	created := fx.create(t, owner, "thread")

	tick := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	fx.svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	texts := []string{"first", "second", "second", "third"}
	var view *models.FeedbackView
	var err error
	for _, text := range texts {
		view, err = fx.svc.AddComment(ctx, owner, created.ID, text)
		require.NoError(t, err)
	}

	require.Len(t, view.Comments, len(texts))
	for i, c := range view.Comments {
		assert.Equal(t, texts[i], c.Text)
		require.NotNil(t, c.User)
		assert.Equal(t, "owner", c.User.Name)
		if i > 0 {
			assert.True(t, c.CreatedAt.After(view.Comments[i-1].CreatedAt))
		}
	}

	_, err = fx.svc.AddComment(ctx, owner, created.ID, "   ")
	assert.EqualError(t, err, "Comment text is required")

	_, err = fx.svc.AddComment(ctx, owner, "64b7f0c2a1b2c3d4e5f60718", "hello")
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeNotFound))
}

// Commenting is open to any authenticated caller, even outside their scope.
func TestFeedbackService_CommentOutsideScopeIsAllowed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	owner := fx.addUser(t, "owner", models.UserRoleSTUDENT)
	parent := fx.addUser(t, "parent", models.UserRolePARENT)
	created := fx.create(t, owner, "private")

	assert.False(t, ResolveScope(parent).Matches(&models.Feedback{CreatedBy: owner.ID}))

	view, err := fx.svc.AddComment(ctx, parent, created.ID, "me too")
	require.NoError(t, err)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, parent.ID, view.Comments[0].User.ID)
}

func TestFeedbackService_UpdateCategory(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	student := fx.addUser(t, "student", models.UserRoleSTUDENT)
	lecturer := fx.addUser(t, "lecturer", models.UserRoleLECTURER)
	admin := fx.addUser(t, "admin", models.UserRoleADMIN)
	item := fx.seed(t, student.ID, "", models.FeedbackStatusRESOLVED, time.Now())

	_, err := fx.svc.UpdateCategory(ctx, lecturer, item.ID.Hex(), "SUGGESTION")
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeForbidden))

	_, err = fx.svc.UpdateCategory(ctx, admin, item.ID.Hex(), "OTHER")
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeValidation))

	view, err := fx.svc.UpdateCategory(ctx, admin, item.ID.Hex(), "SUGGESTION")
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackCategorySUGGESTION, view.Category)
	assert.Equal(t, models.FeedbackStatusRESOLVED, view.Status)
}

func TestFeedbackService_Listings(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	student := fx.addUser(t, "student", models.UserRoleSTUDENT)
	lecturer := fx.addUser(t, "lecturer", models.UserRoleLECTURER)
	base := time.Now()

	older := fx.seed(t, student.ID, "", models.FeedbackStatusPENDING, base)
	newer := fx.seed(t, student.ID, lecturer.ID, models.FeedbackStatusPENDING, base.Add(time.Minute))
	fx.seed(t, lecturer.ID, "", models.FeedbackStatusPENDING, base.Add(2*time.Minute))

	_, err := fx.svc.ListAll(ctx, student)
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeForbidden))

	all, err := fx.svc.ListAll(ctx, lecturer)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := fx.svc.ListMine(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID.Hex(), mine[0].ID)
	assert.Equal(t, older.ID.Hex(), mine[1].ID)

	visible, err := fx.svc.ListVisible(ctx, lecturer)
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

func TestFeedbackService_AnonymousAuthorMasking(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	student := fx.addUser(t, "student", models.UserRoleSTUDENT)
	lecturer := fx.addUser(t, "lecturer", models.UserRoleLECTURER)
	coordinator := fx.addUser(t, "coordinator", models.UserRoleMIT_COORDINATOR)

	created, err := fx.svc.Create(ctx, student, models.CreateFeedbackInput{
		Title: "quiet", Description: "please", IsAnonymous: true,
	}, nil)
	require.NoError(t, err)

	_, err = fx.svc.AddComment(ctx, student, created.ID, "any update?")
	require.NoError(t, err)
	_, err = fx.svc.AddComment(ctx, lecturer, created.ID, "looking into it")
	require.NoError(t, err)

	asLecturer, err := fx.svc.ListAll(ctx, lecturer)
	require.NoError(t, err)
	require.Len(t, asLecturer, 1)
	assert.Nil(t, asLecturer[0].CreatedBy)
	assert.True(t, asLecturer[0].IsAnonymous)
	require.Len(t, asLecturer[0].Comments, 2)
	assert.Nil(t, asLecturer[0].Comments[0].User, "creator comment stays anonymous")
	assert.Equal(t, "any update?", asLecturer[0].Comments[0].Text)
	require.NotNil(t, asLecturer[0].Comments[1].User)
	assert.Equal(t, "lecturer", asLecturer[0].Comments[1].User.Name)

	asCoordinator, err := fx.svc.ListAll(ctx, coordinator)
	require.NoError(t, err)
	require.NotNil(t, asCoordinator[0].CreatedBy)
	assert.Equal(t, "student", asCoordinator[0].CreatedBy.Name)
	require.NotNil(t, asCoordinator[0].Comments[0].User)
	assert.Equal(t, "student", asCoordinator[0].Comments[0].User.Name)

	asOwner, err := fx.svc.ListMine(ctx, student)
	require.NoError(t, err)
	require.NotNil(t, asOwner[0].CreatedBy)
	require.NotNil(t, asOwner[0].Comments[0].User)
}

func TestFeedbackService_DashboardUnassignedIsGlobal(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	admin := fx.addUser(t, "admin", models.UserRoleADMIN)
	student := fx.addUser(t, "student", models.UserRoleSTUDENT)
	lecturer := fx.addUser(t, "lecturer", models.UserRoleLECTURER)
	now := time.Now()

	fx.seed(t, student.ID, "", models.FeedbackStatusPENDING, now)
	fx.seed(t, student.ID, "", models.FeedbackStatusREVIEWED, now)
	fx.seed(t, lecturer.ID, lecturer.ID, models.FeedbackStatusPENDING, now)
	fx.seed(t, student.ID, lecturer.ID, models.FeedbackStatusRESOLVED, now)

	data, err := fx.svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 4, data.Metrics.Total)
	require.NotNil(t, data.Metrics.Unassigned)
	assert.Equal(t, int64(2), *data.Metrics.Unassigned)
	assert.Nil(t, data.Metrics.AssignedToMe)
	require.Len(t, data.RecentFeedback, 4)
	assert.Contains(t, []string{"student", "lecturer"}, data.RecentFeedback[0].SubmittedBy)

	// the lecturer scope covers two items, assignedToMe counts globally
	data, err = fx.svc.Dashboard(ctx, lecturer)
	require.NoError(t, err)
	assert.Equal(t, 2, data.Metrics.Total)
	assert.Nil(t, data.Metrics.Unassigned)
	require.NotNil(t, data.Metrics.AssignedToMe)
	assert.Equal(t, int64(2), *data.Metrics.AssignedToMe)

	data, err = fx.svc.Dashboard(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 3, data.Metrics.Total)
	assert.Equal(t, 1, data.Metrics.Pending)
	assert.Equal(t, 1, data.Metrics.Reviewed)
	assert.Equal(t, 1, data.Metrics.Resolved)
	assert.Nil(t, data.Metrics.Unassigned)
	assert.Nil(t, data.Metrics.AssignedToMe)
}

func TestFeedbackService_Lifecycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	author := fx.addUser(t, "author", models.UserRoleSTUDENT)
	lecturer := fx.addUser(t, "lecturer", models.UserRoleLECTURER)

	created := fx.create(t, author, "Library hours")
	assert.Equal(t, models.FeedbackStatusPENDING, created.Status)

	edited, err := fx.svc.Edit(ctx, author, created.ID, models.FeedbackPatch{Description: "Open later on weekends"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Open later on weekends", edited.Description)

	reviewed, err := fx.svc.UpdateStatus(ctx, lecturer, created.ID, "REVIEWED")
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusREVIEWED, reviewed.Status)

	_, err = fx.svc.Edit(ctx, author, created.ID, models.FeedbackPatch{Title: "again"}, nil)
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeStateConflict), "got %v", err)

	err = fx.svc.Delete(ctx, author, created.ID)
	assert.True(t, utils.IsApiError(err, utils.ErrorCodeStateConflict), "got %v", err)

	stored, err := fx.feedbacks.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Library hours", stored.Title)
	assert.Equal(t, models.FeedbackStatusREVIEWED, stored.Status)
}
