// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package stats computes presentation-facing activity and popularity
// summaries from the raw interaction log.
//
// Every summarizer is a pure function windowed to the trailing 7 days from
// the log's own maximum observed login time, never the wall clock, so a
// stale snapshot renders the same charts every time.
package stats

import (
	"math"
	"time"

	"github.com/aiotrix/streampulse/internal/models"
)

// windowDays matches the feature-aggregation window.
const windowDays = 7

// HoursPerDay is the length of the hourly activity profile.
const HoursPerDay = 24

// HourlyActivity returns the expected login count for each hour of the day
// (index 0-23) from the trailing 7 days of the log.
//
// Policy: group logins by (calendar date, hour), then take the per-hour
// median across the days in the window, rounded to the nearest integer.
// The median is robust to single-day spikes, which a plain 7-day mean is
// not. An empty log yields 24 zeros.
func HourlyActivity(interactions []models.InteractionEvent) []int {
	profile := make([]int, HoursPerDay)
	maxLogin, ok := maxLoginTime(interactions)
	if !ok {
		return profile
	}

	windowStart := truncateToDay(maxLogin).AddDate(0, 0, -windowDays)

	// Per-day hourly counts, keyed by calendar date.
	counts := make(map[time.Time]*[HoursPerDay]int)
	for _, ev := range interactions {
		if ev.LoginTime.Before(windowStart) {
			continue
		}
		day := truncateToDay(ev.LoginTime)
		dayCounts, exists := counts[day]
		if !exists {
			dayCounts = &[HoursPerDay]int{}
			counts[day] = dayCounts
		}
		dayCounts[ev.LoginTime.Hour()]++
	}

	// Every calendar day in the window contributes, zeros included, so a
	// quiet day pulls the median down instead of vanishing.
	days := make([]time.Time, 0, windowDays+1)
	for d := windowStart; !d.After(maxLogin); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	for hour := 0; hour < HoursPerDay; hour++ {
		perDay := make([]float64, 0, len(days))
		for _, day := range days {
			n := 0
			if dayCounts, exists := counts[day]; exists {
				n = dayCounts[hour]
			}
			perDay = append(perDay, float64(n))
		}
		profile[hour] = int(math.Round(median(perDay)))
	}
	return profile
}

// maxLoginTime returns the latest login in the log.
func maxLoginTime(interactions []models.InteractionEvent) (time.Time, bool) {
	var max time.Time
	found := false
	for _, ev := range interactions {
		if !found || ev.LoginTime.After(max) {
			max = ev.LoginTime
			found = true
		}
	}
	return max, found
}

// truncateToDay drops the time-of-day component, keeping the location.
func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// median of a float slice; 0 for empty input.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	// Insertion sort; the slices here are at most a handful of days long.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
