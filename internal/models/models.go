// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package models defines the core domain types shared across StreamPulse:
// raw ingestion entities (interaction events, user profiles, the show
// catalog), derived analytics entities (feature vectors, churn verdicts),
// and the standardized API response envelope.
//
// Raw entities are durable and append-only; derived entities are ephemeral,
// recomputed from a full snapshot on every request and never persisted.
package models

import "time"

// InteractionEvent is one logged viewing session. Events are immutable once
// logged and form an unbounded append-only log owned by the ingestion layer.
type InteractionEvent struct {
	// UserID identifies the user who opened the session.
	UserID string `json:"user_id"`

	// LoginTime is when the session started.
	LoginTime time.Time `json:"login_time"`

	// ContentWatched lists the show IDs watched during the session.
	ContentWatched []string `json:"content_watched"`

	// GenresWatched lists the distinct genre labels watched in the session.
	GenresWatched []string `json:"genres_watched"`

	// TotalWatchTime is the session watch time in minutes.
	TotalWatchTime float64 `json:"total_watch_time"`

	// NumPauses counts playback pauses during the session.
	NumPauses int `json:"num_pauses"`

	// BufferEvents counts buffering interruptions during the session.
	BufferEvents int `json:"buffer_events"`

	// WasRecommended reports whether the session started from a
	// recommended title.
	WasRecommended bool `json:"was_recommended"`
}

// UserProfile is one registered user. Profiles are written once at
// registration. Duplicate user IDs are possible (registration is not
// idempotent) and downstream joins take the first match.
type UserProfile struct {
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	Country          string    `json:"country"`
	RegistrationDate time.Time `json:"registration_date"`
	PreferredGenres  []string  `json:"preferred_genres"`
	SubscriptionType string    `json:"subscription_type"`
}

// Show is one catalog entry. The catalog is static reference data; its
// natural order is the order candidates are taken in when recommending.
type Show struct {
	ShowID   string  `json:"show_id"`
	ShowName string  `json:"show_name"`
	Genre    string  `json:"genre"`
	Duration int     `json:"duration"` // minutes
	Ratings  float64 `json:"ratings"`
}

// NoSessionSentinel is the DaysSinceLastSession value for a user with zero
// sessions in the entire interaction log. It means "no session observed",
// never a real elapsed-day count.
const NoSessionSentinel = 999

// UserFeatureVector is the fixed-schema numeric summary of one user's
// trailing 7-day behavior, the classifier input. One row exists per user
// table row; users without window activity carry zero aggregates.
type UserFeatureVector struct {
	UserID string `json:"user_id"`

	// Windowed aggregates over the trailing 7 days.
	TotalWatchTime7d           float64 `json:"total_watch_time_7d"`
	TotalSessions7d            int     `json:"total_sessions_7d"`
	AvgWatchTimePerSession7d   float64 `json:"avg_watch_time_per_session_7d"`
	MedianPauses7d             float64 `json:"median_pauses_7d"`
	MedianBufferEvents7d       float64 `json:"median_buffer_events_7d"`
	RecommendationAcceptRate7d float64 `json:"recommendation_accept_rate_7d"`
	GenreDiversity7d           int     `json:"genre_diversity_7d"`

	// DaysSinceLastSession is computed over the FULL log, not the window.
	// NoSessionSentinel when the user never logged a session.
	DaysSinceLastSession int `json:"days_since_last_session"`
}

// ChurnReason is the categorical explanation for a user's churn risk.
type ChurnReason string

// Churn reasons emitted by the classifier. Models trained on other label
// sets may emit reasons outside this list; those are carried through
// verbatim and treated as churned with no recommendation policy.
const (
	ReasonNoChurn            ChurnReason = "no_churn"
	ReasonBadRecommendation  ChurnReason = "bad_recommendation"
	ReasonGenreFatigue       ChurnReason = "genre_fatigue"
	ReasonPoorUserExperience ChurnReason = "poor_user_experience"
	ReasonLowEngagement      ChurnReason = "low_engagement"
)

// IsChurn reports whether the reason marks the user as at risk.
// Anything other than no_churn counts, including unrecognized labels.
func (r ChurnReason) IsChurn() bool {
	return r != ReasonNoChurn
}

// ChurnVerdict is the classifier's decision for one user. One verdict per
// feature vector, recomputed per invocation.
type ChurnVerdict struct {
	UserID string      `json:"user_id"`
	Reason ChurnReason `json:"churn_reason"`
}
