// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package api provides the HTTP surface of StreamPulse: ingest endpoints
// for profiles and interaction events, and the read endpoints backing the
// churn and engagement dashboard pages.
//
// Every response uses the models.APIResponse envelope. Analytics handlers
// read a fresh storage snapshot per request; only classifier output is
// memoized, in a short-TTL render cache keyed by (reference time, store
// revision), so the handful of requests in one dashboard render share a
// single inference pass.
package api

import (
	"net/http"
	"time"

	"github.com/aiotrix/streampulse/internal/cache"
	"github.com/aiotrix/streampulse/internal/churn"
	"github.com/aiotrix/streampulse/internal/config"
	"github.com/aiotrix/streampulse/internal/models"
	"github.com/aiotrix/streampulse/internal/storage"
)

// Handler holds the collaborators shared by all HTTP handlers.
type Handler struct {
	store     storage.Store
	adapter   *churn.Adapter
	config    *config.Config
	cache     *cache.Cache
	startTime time.Time
}

// NewHandler creates a handler with its collaborators.
func NewHandler(store storage.Store, adapter *churn.Adapter, cfg *config.Config, renderCache *cache.Cache) *Handler {
	return &Handler{
		store:     store,
		adapter:   adapter,
		config:    cfg,
		cache:     renderCache,
		startTime: time.Now(),
	}
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status        string  `json:"status"`
	Backend       string  `json:"backend"`
	StoreRevision uint64  `json:"store_revision"`
	Uptime        float64 `json:"uptime_seconds"`
}

// Health reports process health. Storage is file-backed and the model is
// loaded at startup, so a running process with a reachable store is
// healthy; there is no degraded state to report.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: HealthStatus{
			Status:        "healthy",
			Backend:       h.config.Storage.Backend,
			StoreRevision: h.store.Revision(),
			Uptime:        time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
