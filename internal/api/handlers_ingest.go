// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package api

import (
	"net/http"
	"time"

	"github.com/aiotrix/streampulse/internal/logging"
	"github.com/aiotrix/streampulse/internal/metrics"
	"github.com/aiotrix/streampulse/internal/models"
)

// RegisterUserRequest is the POST /api/v1/users payload.
//
// RegistrationDate accepts RFC3339 or a bare date; empty means unknown,
// which downstream joins tolerate. Duplicate user IDs are accepted; the
// first profile wins in analytics joins.
type RegisterUserRequest struct {
	UserID           string   `json:"user_id" validate:"required,max=128"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Country          string   `json:"country" validate:"omitempty,max=64"`
	RegistrationDate string   `json:"registration_date"`
	PreferredGenres  []string `json:"preferred_genres" validate:"omitempty,dive,max=64"`
	SubscriptionType string   `json:"subscription_type" validate:"omitempty,max=32"`
}

// LogEventRequest is the POST /api/v1/events payload.
type LogEventRequest struct {
	UserID         string   `json:"user_id" validate:"required,max=128"`
	LoginTime      string   `json:"login_time" validate:"required"`
	ContentWatched []string `json:"content_watched" validate:"omitempty,dive,max=128"`
	GenresWatched  []string `json:"genres_watched" validate:"omitempty,dive,max=64"`
	TotalWatchTime float64  `json:"total_watch_time" validate:"gte=0"`
	NumPauses      int      `json:"num_pauses" validate:"gte=0"`
	BufferEvents   int      `json:"buffer_events" validate:"gte=0"`
	WasRecommended bool     `json:"was_recommended"`
}

// RegisterUser handles POST /api/v1/users: validate, append, done. There
// is no read-back; the profile becomes visible to analytics on the next
// snapshot load.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	profile := models.UserProfile{
		UserID:           req.UserID,
		Email:            req.Email,
		Country:          req.Country,
		PreferredGenres:  req.PreferredGenres,
		SubscriptionType: req.SubscriptionType,
	}
	if req.RegistrationDate != "" {
		t, ok := parseFlexibleTime(req.RegistrationDate)
		if !ok {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "registration_date must be RFC3339 or YYYY-MM-DD", nil)
			return
		}
		profile.RegistrationDate = t
	}

	if err := h.store.RegisterUser(r.Context(), profile); err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to persist user profile", err)
		return
	}

	metrics.IngestUsersTotal.Inc()
	logging.Debug().Str("user_id", sanitizeLogValue(req.UserID)).Msg("user profile registered")

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"user_id":  profile.UserID,
			"revision": h.store.Revision(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// LogEvent handles POST /api/v1/events: append one interaction to the
// log.
func (h *Handler) LogEvent(w http.ResponseWriter, r *http.Request) {
	var req LogEventRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	loginTime, ok := parseFlexibleTime(req.LoginTime)
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "login_time must be RFC3339 or YYYY-MM-DD", nil)
		return
	}

	event := models.InteractionEvent{
		UserID:         req.UserID,
		LoginTime:      loginTime,
		ContentWatched: req.ContentWatched,
		GenresWatched:  req.GenresWatched,
		TotalWatchTime: req.TotalWatchTime,
		NumPauses:      req.NumPauses,
		BufferEvents:   req.BufferEvents,
		WasRecommended: req.WasRecommended,
	}

	if err := h.store.AppendInteraction(r.Context(), event); err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to persist interaction event", err)
		return
	}

	metrics.IngestEventsTotal.Inc()

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"user_id":  event.UserID,
			"revision": h.store.Revision(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// parseFlexibleTime parses the timestamp formats ingest accepts.
func parseFlexibleTime(raw string) (time.Time, bool) {
	for _, layout := range referenceTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
