// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package recommend maps churn reasons to ranked show lists.
//
// The engine is deterministic and catalog-order preserving: candidates are
// filtered by a per-reason policy and taken in the catalog's natural
// order. There is no scoring or learning here; the intervention policy is
// intentionally simple and auditable.
//
// Per-reason candidate policies:
//
//	genre_fatigue        catalog genres the user has NOT watched recently
//	bad_recommendation   shows in the user's preferred genres
//	poor_user_experience shows shorter than 60 minutes
//	low_engagement       preferred-genre shows rated 4.0 or higher
//	no_churn / other     no candidates
package recommend

import (
	"time"

	"github.com/aiotrix/streampulse/internal/features"
	"github.com/aiotrix/streampulse/internal/models"
)

const (
	// PerUserLimit caps single-user recommendations.
	PerUserLimit = 2

	// BatchLimit caps the aggregated top list across all churned users,
	// and the per-user contribution for genre fatigue in batch mode.
	BatchLimit = 10

	// shortShowMinutes is the duration ceiling for the poor-UX policy:
	// frustrated users get low-commitment titles.
	shortShowMinutes = 60

	// minEngagingRating is the rating floor for the low-engagement policy.
	minEngagingRating = 4.0
)

// NoMatchMarker is the display value for a churned user with no matching
// catalog entry. Single-user display surfaces the marker; batch collection
// uses the empty list instead.
const NoMatchMarker = "None"

// ShowsForUser returns up to `take` show names for one churned user,
// selected by the reason policy in catalog order. Returns an empty slice
// for no_churn and for unrecognized reasons.
func ShowsForUser(referenceTime time.Time, interactions []models.InteractionEvent, profile models.UserProfile, reason models.ChurnReason, catalog []models.Show, take int) []string {
	if take <= 0 || !reason.IsChurn() {
		return nil
	}

	var keep func(models.Show) bool
	switch reason {
	case models.ReasonGenreFatigue:
		recent := features.RecentGenres(referenceTime, interactions, profile.UserID)
		keep = func(s models.Show) bool {
			_, watched := recent[s.Genre]
			return !watched
		}
	case models.ReasonBadRecommendation:
		preferred := stringSet(profile.PreferredGenres)
		keep = func(s models.Show) bool {
			_, ok := preferred[s.Genre]
			return ok
		}
	case models.ReasonPoorUserExperience:
		keep = func(s models.Show) bool {
			return s.Duration < shortShowMinutes
		}
	case models.ReasonLowEngagement:
		preferred := stringSet(profile.PreferredGenres)
		keep = func(s models.Show) bool {
			_, ok := preferred[s.Genre]
			return ok && s.Ratings >= minEngagingRating
		}
	default:
		return nil
	}

	names := make([]string, 0, take)
	for _, s := range catalog {
		if !keep(s) {
			continue
		}
		names = append(names, s.ShowName)
		if len(names) == take {
			break
		}
	}
	return names
}

// ForChurnedUsers builds the churned-user table for the dashboard: one row
// per at-risk verdict, in verdict order, with a comma-joined show list or
// the NoMatchMarker.
//
// Duplicate user IDs in the user table are tolerated; the first profile
// wins, matching the join behavior of the aggregation stage.
func ForChurnedUsers(referenceTime time.Time, interactions []models.InteractionEvent, users []models.UserProfile, verdicts []models.ChurnVerdict, catalog []models.Show) []models.ChurnedUserRow {
	profiles := profileIndex(users)

	rows := make([]models.ChurnedUserRow, 0)
	for _, v := range verdicts {
		if !v.Reason.IsChurn() {
			continue
		}
		shows := ShowsForUser(referenceTime, interactions, profiles[v.UserID], v.Reason, catalog, PerUserLimit)
		rows = append(rows, models.ChurnedUserRow{
			UserID:           v.UserID,
			Reason:           v.Reason,
			RecommendedShows: joinOrMarker(shows),
		})
	}
	return rows
}

// TopShowsForChurned aggregates per-user recommendations across all
// churned users in verdict order, deduplicates by title preserving
// first-seen order, and truncates to BatchLimit.
//
// Genre-fatigued users contribute up to BatchLimit candidates each (their
// candidate pool is whole unwatched genres); every other reason
// contributes at most PerUserLimit.
func TopShowsForChurned(referenceTime time.Time, interactions []models.InteractionEvent, users []models.UserProfile, verdicts []models.ChurnVerdict, catalog []models.Show) []string {
	profiles := profileIndex(users)

	seen := make(map[string]struct{})
	top := make([]string, 0, BatchLimit)
	for _, v := range verdicts {
		if !v.Reason.IsChurn() {
			continue
		}
		take := PerUserLimit
		if v.Reason == models.ReasonGenreFatigue {
			take = BatchLimit
		}
		for _, name := range ShowsForUser(referenceTime, interactions, profiles[v.UserID], v.Reason, catalog, take) {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			top = append(top, name)
			if len(top) == BatchLimit {
				return top
			}
		}
	}
	return top
}

// profileIndex maps user ID to profile, first match winning.
func profileIndex(users []models.UserProfile) map[string]models.UserProfile {
	idx := make(map[string]models.UserProfile, len(users))
	for _, u := range users {
		if _, ok := idx[u.UserID]; !ok {
			idx[u.UserID] = u
		}
	}
	return idx
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func joinOrMarker(shows []string) string {
	if len(shows) == 0 {
		return NoMatchMarker
	}
	out := shows[0]
	for _, s := range shows[1:] {
		out += ", " + s
	}
	return out
}
