// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package models

import "time"

// ReasonCount is one slice of the churn breakdown chart.
type ReasonCount struct {
	Reason ChurnReason `json:"reason"`
	Users  int         `json:"users"`
}

// ChurnedUserRow is one row of the churned-user table on the dashboard.
// RecommendedShows is a comma-joined display string; "None" when no catalog
// entry matched the user's reason policy.
type ChurnedUserRow struct {
	UserID           string      `json:"user_id"`
	Reason           ChurnReason `json:"churn_reason"`
	RecommendedShows string      `json:"recommended_shows"`
}

// ChurnAnalytics is the payload behind the churn dashboard page: the donut
// percentage, the per-reason bar chart, the churned-user table, and the
// batch top-10 recommendation list.
type ChurnAnalytics struct {
	TotalUsers         int              `json:"total_users"`
	ChurnedUsers       int              `json:"churned_users"`
	ChurnRate          float64          `json:"churn_rate"` // 0..1, 0 for an empty user table
	Breakdown          []ReasonCount    `json:"breakdown"`
	Users              []ChurnedUserRow `json:"users"`
	TopRecommendations []string         `json:"top_recommendations"`
}

// HourlyActivityPoint is one bar of the hourly login activity chart: the
// median daily login count for one hour of day over the trailing week.
type HourlyActivityPoint struct {
	Hour         int `json:"hour"`
	MedianLogins int `json:"median_logins"`
}

// DailyWatchTime is one point of the 7-day average watch time line chart.
// Days with zero sessions report 0, never null.
type DailyWatchTime struct {
	Date         time.Time `json:"date"`
	AvgWatchTime float64   `json:"avg_watch_time"`
	SessionCount int       `json:"session_count"`
}

// TopShow is one row of the top watched shows table, ranked by watch count
// descending with catalog-order tie-breaks.
type TopShow struct {
	ShowID     string `json:"show_id"`
	ShowName   string `json:"show_name"`
	Genre      string `json:"genre"`
	WatchCount int    `json:"watch_count"`
}
