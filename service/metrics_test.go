package service

import (
	"testing"
	"time"

	"github.com/BerniceZTT/feedback_end/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var epoch = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

func newItem(status models.FeedbackStatus, createdAt, updatedAt time.Time) models.Feedback {
	return models.Feedback{
		ID:        primitive.NewObjectID(),
		CreatedBy: "u1",
		Category:  models.FeedbackCategoryFEEDBACK,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

func TestAverageResolution(t *testing.T) {
	day := 24 * time.Hour

	tests := []struct {
		name  string
		items []models.Feedback
		want  string
	}{
		{"none resolved", nil, "—"},
		{
			"one and three days",
			[]models.Feedback{
				newItem(models.FeedbackStatusRESOLVED, epoch, epoch.Add(day)),
				newItem(models.FeedbackStatusRESOLVED, epoch, epoch.Add(3*day)),
			},
			"2.0 day(s)",
		},
		{
			"under a day",
			[]models.Feedback{newItem(models.FeedbackStatusRESOLVED, epoch, epoch.Add(90*time.Minute))},
			"1.5 hr(s)",
		},
		{
			"negative span clamps to zero",
			[]models.Feedback{newItem(models.FeedbackStatusRESOLVED, epoch, epoch.Add(-time.Hour))},
			"0.0 hr(s)",
		},
		{
			"exactly one day",
			[]models.Feedback{newItem(models.FeedbackStatusRESOLVED, epoch, epoch.Add(day))},
			"1.0 day(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageResolution(tt.items))
		})
	}
}

func TestComputeMetrics_Counts(t *testing.T) {
	scoped := []models.Feedback{
		newItem(models.FeedbackStatusPENDING, epoch, epoch),
		newItem(models.FeedbackStatusPENDING, epoch, epoch),
		newItem(models.FeedbackStatusREVIEWED, epoch, epoch),
		newItem(models.FeedbackStatusRESOLVED, epoch, epoch.Add(48*time.Hour)),
	}
	scoped[1].Category = models.FeedbackCategorySUGGESTION
	scoped[2].Category = ""

	data := ComputeMetrics(scoped, &models.Caller{ID: "s", Role: models.UserRoleSTUDENT}, GlobalCounts{Unassigned: 9, AssignedToMe: 9}, nil)

	assert.Equal(t, 4, data.Metrics.Total)
	assert.Equal(t, 2, data.Metrics.Pending)
	assert.Equal(t, 1, data.Metrics.Reviewed)
	assert.Equal(t, 1, data.Metrics.Resolved)
	assert.Equal(t, "2.0 day(s)", data.Metrics.AvgResolution)
	assert.Nil(t, data.Metrics.Unassigned)
	assert.Nil(t, data.Metrics.AssignedToMe)

	assert.Equal(t, map[models.FeedbackStatus]int{
		models.FeedbackStatusPENDING:  2,
		models.FeedbackStatusREVIEWED: 1,
		models.FeedbackStatusRESOLVED: 1,
	}, data.Charts.StatusCounts)
	assert.Equal(t, map[models.FeedbackCategory]int{
		models.FeedbackCategoryFEEDBACK:   2,
		models.FeedbackCategorySUGGESTION: 1,
		"OTHER":                           1,
	}, data.Charts.CategoryCounts)
}

func TestComputeMetrics_RoleCounters(t *testing.T) {
	global := GlobalCounts{Unassigned: 3, AssignedToMe: 5}

	admin := ComputeMetrics(nil, &models.Caller{ID: "a", Role: models.UserRoleADMIN}, global, nil)
	require.NotNil(t, admin.Metrics.Unassigned)
	assert.Equal(t, int64(3), *admin.Metrics.Unassigned)
	assert.Nil(t, admin.Metrics.AssignedToMe)

	coordinator := ComputeMetrics(nil, &models.Caller{ID: "c", Role: models.UserRoleMIT_COORDINATOR}, global, nil)
	require.NotNil(t, coordinator.Metrics.Unassigned)

	lecturer := ComputeMetrics(nil, &models.Caller{ID: "l", Role: models.UserRoleLECTURER}, global, nil)
	assert.Nil(t, lecturer.Metrics.Unassigned)
	require.NotNil(t, lecturer.Metrics.AssignedToMe)
	assert.Equal(t, int64(5), *lecturer.Metrics.AssignedToMe)

	assert.Equal(t, "—", lecturer.Metrics.AvgResolution)
	assert.Empty(t, lecturer.RecentFeedback)
}

func TestComputeMetrics_RecentFeedback(t *testing.T) {
	var scoped []models.Feedback
	for i := 0; i < 10; i++ {
		scoped = append(scoped, newItem(models.FeedbackStatusPENDING, epoch.Add(time.Duration(i)*time.Hour), epoch))
	}
	scoped[9].IsAnonymous = true
	scoped[8].CreatedBy = "ghost"

	authors := map[string]*models.User{"u1": {Name: "Ada"}}
	data := ComputeMetrics(scoped, &models.Caller{ID: "u1", Role: models.UserRoleSTUDENT}, GlobalCounts{}, authors)

	require.Len(t, data.RecentFeedback, 8)
	assert.Equal(t, scoped[9].ID.Hex(), data.RecentFeedback[0].ID)
	assert.Equal(t, scoped[2].ID.Hex(), data.RecentFeedback[7].ID)

	assert.Equal(t, "Anonymous", data.RecentFeedback[0].SubmittedBy)
	assert.Equal(t, "Unknown", data.RecentFeedback[1].SubmittedBy)
	assert.Equal(t, "Ada", data.RecentFeedback[2].SubmittedBy)
	assert.Equal(t, models.FeedbackCategoryFEEDBACK, data.RecentFeedback[2].Type)
	assert.Equal(t, scoped[7].CreatedAt, data.RecentFeedback[2].Date)
}
