// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aiotrix/streampulse/internal/config"
	"github.com/aiotrix/streampulse/internal/middleware"
)

// NewRouter wires all HTTP routes with the shared middleware stack.
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	if cfg.Server.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	}

	// Health and metrics stay outside the instrumented group: scrapes and
	// probes would dominate the request metrics otherwise.
	r.Get("/api/v1/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		// Ingestion
		r.Post("/users", h.RegisterUser)
		r.Post("/events", h.LogEvent)

		// Dashboard reads
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/churn", h.AnalyticsChurn)
			r.Get("/features", h.AnalyticsFeatures)
			r.Get("/hourly-activity", h.AnalyticsHourlyActivity)
			r.Get("/watch-time", h.AnalyticsWatchTime)
			r.Get("/top-shows", h.AnalyticsTopShows)
		})
	})

	return r
}
