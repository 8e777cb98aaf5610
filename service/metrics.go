package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
)

const (
	recentFeedbackLimit = 8
	otherCategory       = models.FeedbackCategory("OTHER")
	unknownSubmitter    = "Unknown"
)

// GlobalCounts are dashboard counters taken over the whole store rather than
// the caller's scope.
type GlobalCounts struct {
	Unassigned   int64
	AssignedToMe int64
}

func wantsUnassignedCount(role models.UserRole) bool {
	return role.In(oversightRoles...)
}

func wantsAssignedToMeCount(role models.UserRole) bool {
	return role == models.UserRoleLECTURER
}

// ComputeMetrics reduces the caller's scoped items to the dashboard payload.
// authors maps creator ids to users for the submittedBy column.
func ComputeMetrics(scoped []models.Feedback, caller *models.Caller, global GlobalCounts, authors map[string]*models.User) models.DashboardDataResponse {
	statusCounts := map[models.FeedbackStatus]int{}
	for _, status := range models.AllFeedbackStatuses {
		statusCounts[status] = 0
	}
	categoryCounts := map[models.FeedbackCategory]int{}

	var resolved []models.Feedback
	for _, f := range scoped {
		statusCounts[f.Status]++
		category := f.Category
		if category == "" {
			category = otherCategory
		}
		categoryCounts[category]++
		if f.Status == models.FeedbackStatusRESOLVED {
			resolved = append(resolved, f)
		}
	}

	metrics := models.DashboardMetrics{
		Total:         len(scoped),
		Pending:       statusCounts[models.FeedbackStatusPENDING],
		Reviewed:      statusCounts[models.FeedbackStatusREVIEWED],
		Resolved:      statusCounts[models.FeedbackStatusRESOLVED],
		AvgResolution: AverageResolution(resolved),
	}
	if caller != nil {
		if wantsUnassignedCount(caller.Role) {
			n := global.Unassigned
			metrics.Unassigned = &n
		}
		if wantsAssignedToMeCount(caller.Role) {
			n := global.AssignedToMe
			metrics.AssignedToMe = &n
		}
	}

	return models.DashboardDataResponse{
		Metrics: metrics,
		Charts: models.DashboardCharts{
			StatusCounts:   statusCounts,
			CategoryCounts: categoryCounts,
		},
		RecentFeedback: recentFeedback(scoped, authors),
	}
}

// AverageResolution is the mean of updatedAt-createdAt over resolved items,
// each clamped at zero. updatedAt moves on any write, so this approximates
// the true resolution latency.
func AverageResolution(resolved []models.Feedback) string {
	if len(resolved) == 0 {
		return models.NoResolutionTime
	}

	var total time.Duration
	for _, f := range resolved {
		if d := f.UpdatedAt.Sub(f.CreatedAt); d > 0 {
			total += d
		}
	}
	return FormatResolution(total / time.Duration(len(resolved)))
}

// FormatResolution renders d in days from one day upward, in hours below.
func FormatResolution(d time.Duration) string {
	days := d.Hours() / 24
	if days >= 1 {
		return fmt.Sprintf("%.1f day(s)", days)
	}
	return fmt.Sprintf("%.1f hr(s)", d.Hours())
}

func recentFeedback(scoped []models.Feedback, authors map[string]*models.User) []models.RecentFeedbackItem {
	ordered := append([]models.Feedback(nil), scoped...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	if len(ordered) > recentFeedbackLimit {
		ordered = ordered[:recentFeedbackLimit]
	}

	items := make([]models.RecentFeedbackItem, 0, len(ordered))
	for _, f := range ordered {
		items = append(items, models.RecentFeedbackItem{
			ID:          f.ID.Hex(),
			Type:        f.Category,
			Category:    f.Category,
			SubmittedBy: submittedBy(&f, authors),
			Status:      f.Status,
			Date:        f.CreatedAt,
		})
	}
	return items
}

func submittedBy(f *models.Feedback, authors map[string]*models.User) string {
	if f.IsAnonymous {
		return models.AnonymousSubmitter
	}
	if u, ok := authors[f.CreatedBy]; ok && u.Name != "" {
		return u.Name
	}
	return unknownSubmitter
}
