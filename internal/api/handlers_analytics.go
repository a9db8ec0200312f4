// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/aiotrix/streampulse/internal/churn"
	"github.com/aiotrix/streampulse/internal/features"
	"github.com/aiotrix/streampulse/internal/metrics"
	"github.com/aiotrix/streampulse/internal/models"
	"github.com/aiotrix/streampulse/internal/recommend"
	"github.com/aiotrix/streampulse/internal/stats"
	"github.com/aiotrix/streampulse/internal/storage"
)

// This file contains the read endpoints backing the two dashboard pages:
//
//   - AnalyticsChurn: churn rate, per-reason breakdown, churned-user table
//     with recommendations, and the batch top-10 list
//   - AnalyticsFeatures: the per-user feature table
//   - AnalyticsHourlyActivity, AnalyticsWatchTime, AnalyticsTopShows: the
//     engagement summarizers
//
// All analytics run against a snapshot loaded fresh per request. Only the
// classifier pass is memoized: its output is pure in (reference time,
// snapshot), so the render cache key is (reference time, store revision).

// loadSnapshot reads all tables, translating a missing backing file into a
// 404: reference data is a deployment precondition, not a server fault.
func (h *Handler) loadSnapshot(w http.ResponseWriter, r *http.Request) (*storage.Snapshot, bool) {
	snap, err := storage.LoadSnapshot(r.Context(), h.store)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Data files not found", err)
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load data snapshot", err)
		return nil, false
	}
	return snap, true
}

// classifyVerdicts runs feature extraction and the classifier over a
// snapshot, memoizing the verdict batch in the render cache.
func (h *Handler) classifyVerdicts(ctx context.Context, referenceTime time.Time, snap *storage.Snapshot) ([]models.ChurnVerdict, bool, error) {
	key := fmt.Sprintf("verdicts:%d:%d", referenceTime.Unix(), h.store.Revision())
	if cached, ok := h.cache.Get(key); ok {
		if verdicts, ok := cached.([]models.ChurnVerdict); ok {
			metrics.RenderCacheHits.Inc()
			return verdicts, true, nil
		}
	}
	metrics.RenderCacheMisses.Inc()

	vectors := features.BuildFeatureTable(referenceTime, snap.Interactions, snap.Users)

	start := time.Now()
	verdicts, err := h.adapter.Classify(ctx, vectors)
	metrics.RecordClassification(err, time.Since(start))
	if err != nil {
		return nil, false, err
	}

	h.cache.Set(key, verdicts)
	return verdicts, false, nil
}

// AnalyticsChurn returns the full churn dashboard payload.
//
// Method: GET
// Path: /api/v1/analytics/churn
// Query Parameters: reference_time (RFC3339 or YYYY-MM-DD; falls back to
// the configured default).
func (h *Handler) AnalyticsChurn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	referenceTime, apiErr := h.referenceTime(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	snap, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}

	verdicts, cached, err := h.classifyVerdicts(r.Context(), referenceTime, snap)
	if err != nil {
		if errors.Is(err, churn.ErrDataContract) {
			respondError(w, http.StatusInternalServerError, "DATA_CONTRACT_ERROR", "Feature table does not match the trained model", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "CLASSIFIER_ERROR", "Churn classification failed", err)
		return
	}

	summary := churn.Summarize(verdicts)
	payload := models.ChurnAnalytics{
		TotalUsers:         summary.TotalUsers,
		ChurnedUsers:       summary.ChurnedUsers,
		ChurnRate:          summary.ChurnRate,
		Breakdown:          summary.Breakdown,
		Users:              recommend.ForChurnedUsers(referenceTime, snap.Interactions, snap.Users, verdicts, snap.Shows),
		TopRecommendations: recommend.TopShowsForChurned(referenceTime, snap.Interactions, snap.Users, verdicts, snap.Shows),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   payload,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      cached,
		},
	})
}

// AnalyticsFeatures returns the per-user feature table as handed to the
// classifier, one row per registered user.
//
// Method: GET
// Path: /api/v1/analytics/features
func (h *Handler) AnalyticsFeatures(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	referenceTime, apiErr := h.referenceTime(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	snap, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}

	vectors := features.BuildFeatureTable(referenceTime, snap.Interactions, snap.Users)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   vectors,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// AnalyticsHourlyActivity returns the median daily login count per hour of
// day over the trailing week. The window anchors at the log's latest
// login, not at the reference time: the engagement page describes the log
// as observed, not a pinned analysis date.
//
// Method: GET
// Path: /api/v1/analytics/hourly-activity
func (h *Handler) AnalyticsHourlyActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	snap, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}

	medians := stats.HourlyActivity(snap.Interactions)
	points := make([]models.HourlyActivityPoint, len(medians))
	for hour, logins := range medians {
		points[hour] = models.HourlyActivityPoint{Hour: hour, MedianLogins: logins}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   points,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// AnalyticsWatchTime returns the average session watch time for each of
// the 7 calendar days ending at the log's latest login, oldest first.
//
// Method: GET
// Path: /api/v1/analytics/watch-time
func (h *Handler) AnalyticsWatchTime(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	snap, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}

	points := stats.AverageWatchTime7d(snap.Interactions)
	if points == nil {
		points = []models.DailyWatchTime{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   points,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// AnalyticsTopShows returns the top 10 most watched shows over the
// trailing week, ranked by watch count with catalog-order tie-breaks.
//
// Method: GET
// Path: /api/v1/analytics/top-shows
func (h *Handler) AnalyticsTopShows(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	snap, ok := h.loadSnapshot(w, r)
	if !ok {
		return
	}

	ranked := stats.TopShows(snap.Interactions, snap.Shows)
	if ranked == nil {
		ranked = []models.TopShow{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   ranked,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
