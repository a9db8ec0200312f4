// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package metrics provides Prometheus instrumentation for StreamPulse.
//
// Metrics are registered at package load via promauto and exposed at the
// /metrics endpoint in Prometheus text format.
//
// Available metrics:
//
//   - api_requests_total{method, endpoint, status}: HTTP request counter
//   - api_request_duration_seconds{method, endpoint}: HTTP latency histogram
//   - ingest_events_total: logged interaction events
//   - ingest_users_total: registered user profiles
//   - classifier_predictions_total{outcome}: churn inference batches (ok/error)
//   - classifier_duration_seconds: churn inference latency
//   - render_cache_hits_total / render_cache_misses_total: classifier memo
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestDuration tracks HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)

	// IngestEventsTotal counts appended interaction events.
	IngestEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total interaction events appended to the log",
		},
	)

	// IngestUsersTotal counts registered user profiles.
	IngestUsersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_users_total",
			Help: "Total user profiles registered",
		},
	)

	// ClassifierPredictions counts inference batches by outcome.
	ClassifierPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_predictions_total",
			Help: "Total churn classifier inference batches",
		},
		[]string{"outcome"},
	)

	// ClassifierDuration tracks inference latency per batch.
	ClassifierDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classifier_duration_seconds",
			Help:    "Churn classifier batch inference duration in seconds",
			Buckets: []float64{.0001, .001, .01, .1, 1},
		},
	)

	// RenderCacheHits counts classifier memo hits within dashboard renders.
	RenderCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "render_cache_hits_total",
			Help: "Render cache hits for memoized classifier output",
		},
	)

	// RenderCacheMisses counts classifier memo misses.
	RenderCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "render_cache_misses_total",
			Help: "Render cache misses for memoized classifier output",
		},
	)
)

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordClassification records one inference batch.
func RecordClassification(err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ClassifierPredictions.WithLabelValues(outcome).Inc()
	ClassifierDuration.Observe(duration.Seconds())
}
