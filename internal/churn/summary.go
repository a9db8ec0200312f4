// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package churn

import (
	"sort"

	"github.com/aiotrix/streampulse/internal/models"
)

// Summary aggregates a verdict batch for the dashboard's donut and
// per-reason bar charts.
type Summary struct {
	TotalUsers   int
	ChurnedUsers int

	// ChurnRate is churned/total in [0,1]; 0 for an empty user table.
	ChurnRate float64

	// Breakdown counts churned users per reason, largest group first,
	// ties broken alphabetically for stable chart output.
	Breakdown []models.ReasonCount
}

// Summarize computes the churn summary from one verdict batch. Empty input
// yields zero counts and a 0 rate, never an error.
func Summarize(verdicts []models.ChurnVerdict) Summary {
	s := Summary{TotalUsers: len(verdicts)}

	counts := make(map[models.ChurnReason]int)
	for _, v := range verdicts {
		if !v.Reason.IsChurn() {
			continue
		}
		s.ChurnedUsers++
		counts[v.Reason]++
	}

	if s.TotalUsers > 0 {
		s.ChurnRate = float64(s.ChurnedUsers) / float64(s.TotalUsers)
	}

	s.Breakdown = make([]models.ReasonCount, 0, len(counts))
	for reason, n := range counts {
		s.Breakdown = append(s.Breakdown, models.ReasonCount{Reason: reason, Users: n})
	}
	sort.Slice(s.Breakdown, func(i, j int) bool {
		if s.Breakdown[i].Users != s.Breakdown[j].Users {
			return s.Breakdown[i].Users > s.Breakdown[j].Users
		}
		return s.Breakdown[i].Reason < s.Breakdown[j].Reason
	})
	return s
}

// ChurnedOnly filters a verdict batch to at-risk users, preserving order.
func ChurnedOnly(verdicts []models.ChurnVerdict) []models.ChurnVerdict {
	churned := make([]models.ChurnVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Reason.IsChurn() {
			churned = append(churned, v)
		}
	}
	return churned
}
