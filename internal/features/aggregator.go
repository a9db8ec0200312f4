// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package features builds per-user behavioral feature tables from the raw
// interaction log.
//
// BuildFeatureTable is the aggregation stage of the churn pipeline: it
// windows the log to the trailing 7 days from an explicit reference time,
// aggregates per user, and left-joins the result onto the user table so
// every registered user gets exactly one row. The output schema and fill
// rules are a contract with the trained churn model; see
// churn.Adapter for the column order handed to the classifier.
package features

import (
	"sort"
	"time"

	"github.com/aiotrix/streampulse/internal/models"
)

// WindowDays is the trailing aggregation window length.
const WindowDays = 7

// userAccumulator collects one user's windowed session statistics.
type userAccumulator struct {
	watchTime   float64
	sessions    int
	pauses      []float64
	buffers     []float64
	recommended int
	genres      map[string]struct{}
}

// BuildFeatureTable computes the per-user 7-day feature table.
//
// referenceTime pins "today". It must be passed explicitly by the caller;
// a reproducible pipeline never reaches for the wall clock. The window is
// [referenceTime - 7d, referenceTime], inclusive on both ends.
//
// Guarantees:
//   - exactly one output row per row in users, in user-table order, even
//     for users with zero activity anywhere
//   - windowed aggregates are 0 when the user has no sessions in the window
//   - DaysSinceLastSession is computed over the FULL log independently of
//     the window, and is models.NoSessionSentinel only when the user has no
//     sessions at all
func BuildFeatureTable(referenceTime time.Time, interactions []models.InteractionEvent, users []models.UserProfile) []models.UserFeatureVector {
	windowStart := referenceTime.AddDate(0, 0, -WindowDays)

	windowed := make(map[string]*userAccumulator)
	lastLogin := make(map[string]time.Time)

	for _, ev := range interactions {
		// Recency looks at the whole log, not the window.
		if last, ok := lastLogin[ev.UserID]; !ok || ev.LoginTime.After(last) {
			lastLogin[ev.UserID] = ev.LoginTime
		}

		if ev.LoginTime.Before(windowStart) || ev.LoginTime.After(referenceTime) {
			continue
		}

		acc, ok := windowed[ev.UserID]
		if !ok {
			acc = &userAccumulator{genres: make(map[string]struct{})}
			windowed[ev.UserID] = acc
		}
		acc.watchTime += ev.TotalWatchTime
		acc.sessions++
		acc.pauses = append(acc.pauses, float64(ev.NumPauses))
		acc.buffers = append(acc.buffers, float64(ev.BufferEvents))
		if ev.WasRecommended {
			acc.recommended++
		}
		for _, g := range ev.GenresWatched {
			acc.genres[g] = struct{}{}
		}
	}

	vectors := make([]models.UserFeatureVector, 0, len(users))
	for _, u := range users {
		v := models.UserFeatureVector{
			UserID:               u.UserID,
			DaysSinceLastSession: models.NoSessionSentinel,
		}

		if acc, ok := windowed[u.UserID]; ok {
			v.TotalWatchTime7d = acc.watchTime
			v.TotalSessions7d = acc.sessions
			v.AvgWatchTimePerSession7d = acc.watchTime / float64(acc.sessions)
			v.MedianPauses7d = median(acc.pauses)
			v.MedianBufferEvents7d = median(acc.buffers)
			v.RecommendationAcceptRate7d = float64(acc.recommended) / float64(acc.sessions)
			v.GenreDiversity7d = len(acc.genres)
		}

		if last, ok := lastLogin[u.UserID]; ok {
			v.DaysSinceLastSession = wholeDays(referenceTime.Sub(last))
		}

		vectors = append(vectors, v)
	}
	return vectors
}

// RecentGenres returns the union of genres a user watched in the trailing
// window. Shared by the recommendation engine, which excludes these for
// genre-fatigued users.
func RecentGenres(referenceTime time.Time, interactions []models.InteractionEvent, userID string) map[string]struct{} {
	windowStart := referenceTime.AddDate(0, 0, -WindowDays)

	genres := make(map[string]struct{})
	for _, ev := range interactions {
		if ev.UserID != userID {
			continue
		}
		if ev.LoginTime.Before(windowStart) || ev.LoginTime.After(referenceTime) {
			continue
		}
		for _, g := range ev.GenresWatched {
			genres[g] = struct{}{}
		}
	}
	return genres
}

// median returns the middle value of xs, averaging the two middle values
// for even lengths. Returns 0 for an empty slice.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// wholeDays truncates a duration to whole elapsed days, flooring toward
// negative infinity so an event stamped after the reference time counts as
// a negative gap rather than rounding to zero.
func wholeDays(d time.Duration) int {
	days := int(d.Hours() / 24)
	if d < 0 && time.Duration(days)*24*time.Hour != d {
		days--
	}
	return days
}
