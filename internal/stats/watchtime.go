// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package stats

import (
	"github.com/aiotrix/streampulse/internal/models"
)

// AverageWatchTime7d returns the mean session watch time for each of the 7
// calendar days ending at the log's maximum observed date, oldest first.
// Days with zero sessions report 0, never NaN or a missing point, so the
// line chart always has 7 points. An empty log yields an empty slice.
func AverageWatchTime7d(interactions []models.InteractionEvent) []models.DailyWatchTime {
	maxLogin, ok := maxLoginTime(interactions)
	if !ok {
		return nil
	}
	maxDate := truncateToDay(maxLogin)

	type dayAgg struct {
		total    float64
		sessions int
	}
	byDay := make(map[int64]*dayAgg)
	for _, ev := range interactions {
		key := truncateToDay(ev.LoginTime).Unix()
		agg, exists := byDay[key]
		if !exists {
			agg = &dayAgg{}
			byDay[key] = agg
		}
		agg.total += ev.TotalWatchTime
		agg.sessions++
	}

	out := make([]models.DailyWatchTime, 0, windowDays)
	for offset := windowDays - 1; offset >= 0; offset-- {
		date := maxDate.AddDate(0, 0, -offset)
		point := models.DailyWatchTime{Date: date}
		if agg, exists := byDay[date.Unix()]; exists {
			point.AvgWatchTime = agg.total / float64(agg.sessions)
			point.SessionCount = agg.sessions
		}
		out = append(out, point)
	}
	return out
}
