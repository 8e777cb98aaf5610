package models

import "time"

// NoResolutionTime is reported when no resolved item is in scope.
const NoResolutionTime = "—"

// AnonymousSubmitter replaces the author name of anonymous items.
const AnonymousSubmitter = "Anonymous"

// DashboardMetrics holds the headline counters. Unassigned and AssignedToMe
// are only populated for the roles that see them.
type DashboardMetrics struct {
	Total         int    `json:"total"`
	Pending       int    `json:"pending"`
	Reviewed      int    `json:"reviewed"`
	Resolved      int    `json:"resolved"`
	AvgResolution string `json:"avgResolution"`
	Unassigned    *int64 `json:"unassigned,omitempty"`
	AssignedToMe  *int64 `json:"assignedToMe,omitempty"`
}

// DashboardCharts feeds the status and category charts.
type DashboardCharts struct {
	StatusCounts   map[FeedbackStatus]int   `json:"statusCounts"`
	CategoryCounts map[FeedbackCategory]int `json:"categoryCounts"`
}

// RecentFeedbackItem is a row of the recent feedback table.
type RecentFeedbackItem struct {
	ID          string           `json:"id"`
	Type        FeedbackCategory `json:"type"`
	Category    FeedbackCategory `json:"category"`
	SubmittedBy string           `json:"submittedBy"`
	Status      FeedbackStatus   `json:"status"`
	Date        time.Time        `json:"date"`
}

// DashboardDataResponse is the body of GET /api/dashboard.
type DashboardDataResponse struct {
	Metrics        DashboardMetrics     `json:"metrics"`
	Charts         DashboardCharts      `json:"charts"`
	RecentFeedback []RecentFeedbackItem `json:"recentFeedback"`
}
