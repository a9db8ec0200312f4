// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package supervisor wraps process components as Suture-supervised
// services. StreamPulse runs a single supervised service, the HTTP
// server; the supervisor restarts it on failure and turns context
// cancellation into a graceful shutdown.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/aiotrix/streampulse/internal/logging"
)

// New creates the root supervisor. Suture lifecycle events are logged
// through zerolog rather than suture's default log function.
func New(name string) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook: func(ev suture.Event) {
			switch ev.Type() {
			case suture.EventTypeServiceTerminate, suture.EventTypeServicePanic:
				logging.Error().Str("supervisor", name).Interface("event", ev.Map()).Msg("supervised service failed")
			default:
				logging.Debug().Str("supervisor", name).Str("event", ev.String()).Msg("supervisor event")
			}
		},
	})
}

// HTTPServer is the lifecycle surface of *http.Server the service needs.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService adapts an HTTP server's blocking ListenAndServe to suture's
// context-aware Serve: the server runs in a goroutine, and context
// cancellation triggers a bounded graceful shutdown.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPService wraps a server for supervision. shutdownTimeout bounds
// how long active connections get to drain on shutdown.
func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. Returns nil only on external server
// close; graceful shutdown returns the context error so suture stops
// rather than restarts the service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String identifies the service in supervisor events.
func (s *HTTPService) String() string {
	return "http-server"
}
