// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/aiotrix/streampulse/internal/logging"
	"github.com/aiotrix/streampulse/internal/models"
	"github.com/aiotrix/streampulse/internal/validation"
)

// referenceTimeLayouts are the accepted reference_time formats, tried in
// order. A bare date pins the reference to midnight UTC of that day.
var referenceTimeLayouts = []string{time.RFC3339, "2006-01-02"}

// sanitizeLogValue strips control characters so request-derived strings
// cannot forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends the response envelope with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends an error envelope and logs the underlying cause.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil when validation passes, otherwise a models.APIError carrying
// the per-field details under the VALIDATION_ERROR code.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// referenceTime resolves the analysis reference time for a request: the
// reference_time query parameter when present, the configured default
// otherwise. The pipeline never falls back to wall-clock, so missing both
// is a client error.
func (h *Handler) referenceTime(r *http.Request) (time.Time, *models.APIError) {
	raw := r.URL.Query().Get("reference_time")
	if raw != "" {
		for _, layout := range referenceTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return time.Time{}, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "reference_time must be RFC3339 or YYYY-MM-DD",
		}
	}

	t, ok, err := h.config.Analytics.ParseReferenceTime()
	if err != nil || !ok {
		return time.Time{}, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "reference_time is required (no default is configured)",
		}
	}
	return t, nil
}

// decodeJSONBody decodes a request body into dst, rejecting unknown fields
// so typos in ingest payloads fail loudly instead of silently dropping
// data.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
