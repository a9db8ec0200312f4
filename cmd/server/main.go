// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Command server runs the StreamPulse API: ingest endpoints for user
// profiles and interaction events, and the analytics endpoints behind the
// churn and engagement dashboard pages.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aiotrix/streampulse/internal/api"
	"github.com/aiotrix/streampulse/internal/cache"
	"github.com/aiotrix/streampulse/internal/churn"
	"github.com/aiotrix/streampulse/internal/config"
	"github.com/aiotrix/streampulse/internal/logging"
	"github.com/aiotrix/streampulse/internal/storage"
	"github.com/aiotrix/streampulse/internal/supervisor"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to search paths)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("backend", cfg.Storage.Backend).
		Str("data_dir", cfg.Storage.DataDir).
		Str("model", cfg.Model.Path).
		Msg("Starting StreamPulse")

	var store storage.Store
	switch cfg.Storage.Backend {
	case "duckdb":
		duckStore, err := storage.NewDuckDBStore(cfg.Storage.DataDir)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open duckdb storage")
		}
		defer duckStore.Close()
		store = duckStore
	default:
		csvStore, err := storage.NewCSVStore(cfg.Storage.DataDir)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open csv storage")
		}
		store = csvStore
	}

	// The model artifact is a startup precondition; a process without a
	// model cannot serve the churn page at all.
	model, err := churn.LoadModel(cfg.Model.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Model.Path).Msg("Failed to load churn model")
	}
	adapter := churn.NewAdapter(model)

	renderCache := cache.New(cfg.Analytics.RenderCacheTTL)

	handler := api.NewHandler(store, adapter, cfg, renderCache)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sup := supervisor.New("streampulse")
	sup.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor exited with error")
	}

	logging.Info().Msg("Shutdown complete")
}
