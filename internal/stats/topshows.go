// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package stats

import (
	"sort"

	"github.com/aiotrix/streampulse/internal/models"
)

// TopShowsLimit caps the popularity table.
const TopShowsLimit = 10

// TopShows ranks shows by watch count over the trailing 7 days from the
// log's latest login, descending, ties broken by catalog order. Counts
// come from flattening every windowed session's content list. Show IDs
// missing from the catalog are dropped; the log is noisy and the table
// only renders titled entries.
func TopShows(interactions []models.InteractionEvent, catalog []models.Show) []models.TopShow {
	maxLogin, ok := maxLoginTime(interactions)
	if !ok {
		return nil
	}
	windowStart := maxLogin.AddDate(0, 0, -windowDays)

	counts := make(map[string]int)
	for _, ev := range interactions {
		if ev.LoginTime.Before(windowStart) {
			continue
		}
		for _, showID := range ev.ContentWatched {
			counts[showID]++
		}
	}

	catalogIndex := make(map[string]int, len(catalog))
	for i, s := range catalog {
		if _, dup := catalogIndex[s.ShowID]; !dup {
			catalogIndex[s.ShowID] = i
		}
	}

	ranked := make([]models.TopShow, 0, len(counts))
	order := make(map[string]int, len(counts))
	for showID, n := range counts {
		idx, known := catalogIndex[showID]
		if !known {
			continue
		}
		show := catalog[idx]
		ranked = append(ranked, models.TopShow{
			ShowID:     showID,
			ShowName:   show.ShowName,
			Genre:      show.Genre,
			WatchCount: n,
		})
		order[showID] = idx
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].WatchCount != ranked[j].WatchCount {
			return ranked[i].WatchCount > ranked[j].WatchCount
		}
		return order[ranked[i].ShowID] < order[ranked[j].ShowID]
	})

	if len(ranked) > TopShowsLimit {
		ranked = ranked[:TopShowsLimit]
	}
	return ranked
}
