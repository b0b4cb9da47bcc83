// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

// Package main is the entry point for the Commendatus server.
//
// Commendatus serves collaborative-filtering recommendations over
// e-commerce interaction events (views, add-to-carts, transactions).
// It trains a cosine-similarity model over a user-item matrix and
// exposes user, session, and evaluation endpoints through a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (Koanf v2)
//  2. Persistent cache: BadgerDB store for computed recommendations
//  3. Engine: the similarity model, restored from a persisted snapshot
//     when one exists, otherwise trained on the sample dataset and saved
//  4. Cache: in-memory LRU in front of the store, warmed from disk
//  5. Sessions: in-memory registry for anonymous browsing sessions,
//     swept periodically so abandoned sessions expire
//  6. HTTP server: Chi router under a suture supervision tree
//
// # Configuration
//
// Settings load from (highest priority wins): environment variables,
// a YAML config file (CONFIG_PATH, default config.yaml), and built-in
// defaults. Common variables:
//
//	export PORT=8080
//	export API_KEY=secret            # empty disables auth
//	export DATASET_PATH=data/events.csv
//	export STORE_PATH=data/cache
//	export TRAINING_INTERVAL=6h      # 0 disables scheduled retraining
//	export LOG_LEVEL=debug
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests (10s timeout), the background loops stop, and the
// cache store is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/commendatus/internal/api"
	"github.com/tomtom215/commendatus/internal/cache"
	"github.com/tomtom215/commendatus/internal/config"
	"github.com/tomtom215/commendatus/internal/dataset"
	"github.com/tomtom215/commendatus/internal/logging"
	"github.com/tomtom215/commendatus/internal/recommend"
	"github.com/tomtom215/commendatus/internal/recommend/storage"
	"github.com/tomtom215/commendatus/internal/session"
	"github.com/tomtom215/commendatus/internal/supervisor"
	"github.com/tomtom215/commendatus/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors surface through the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("dataset_path", cfg.Dataset.Path).
		Bool("store_enabled", cfg.Store.Enabled).
		Bool("auth_enabled", cfg.Server.APIKey != "").
		Msg("Configuration loaded")

	// Persistent cache tier. Losing it is survivable: the cache falls
	// back to memory-only and recomputes on miss.
	var store cache.Store
	if cfg.Store.Enabled {
		badgerStore, err := cache.OpenBadgerStore(cfg.Store.Path)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.Store.Path).
				Msg("Failed to open cache store, continuing memory-only")
		} else {
			store = badgerStore
			defer func() {
				if err := badgerStore.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing cache store")
				}
			}()
			logging.Info().Str("path", cfg.Store.Path).Msg("Cache store opened")
		}
	}

	engine, err := recommend.NewEngine(cfg.Engine, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create engine")
	}

	recCache, err := cache.New(cfg.Cache, engine, store, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create cache")
	}

	loader, err := dataset.NewLoader(cfg.Dataset, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create dataset loader")
	}
	datasets := dataset.NewManager(loader, engine, recCache, logging.Logger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var modelStore *storage.Store
	if cfg.Store.ModelPath != "" {
		modelStore, err = storage.NewStore(cfg.Store.ModelPath)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.Store.ModelPath).
				Msg("Model persistence unavailable")
			modelStore = nil
		}
	}

	// A persisted model skips the boot-time retrain; anything wrong with
	// the file falls back to training from the dataset.
	restored := false
	if modelStore != nil {
		if snap, meta, err := modelStore.Load(); err != nil {
			logging.Info().Err(err).Msg("No usable persisted model, training from dataset")
		} else if err := engine.Restore(snap); err != nil {
			logging.Warn().Err(err).Msg("Persisted model rejected, training from dataset")
		} else {
			restored = true
			logging.Info().
				Int("version", meta.Version).
				Time("trained_at", meta.TrainedAt).
				Msg("Model restored from disk")
		}
	}

	// Initial training on the dense sample. A missing dataset file is
	// not fatal: the API answers 503 until a train succeeds.
	if !restored {
		if status, err := datasets.Switch(ctx, dataset.ModeSample); err != nil {
			logging.Warn().Err(err).Msg("Initial training failed, starting untrained")
		} else {
			logging.Info().
				Int("interactions", status.Stats.Interactions).
				Msg("Initial training complete")
			if modelStore != nil {
				if snap := engine.Snapshot(); snap != nil {
					if _, err := modelStore.Save(snap); err != nil {
						logging.Warn().Err(err).Msg("Model save failed")
					}
				}
			}
		}
	}

	if store != nil {
		warmed, err := recCache.WarmFromStore(ctx)
		if err != nil {
			logging.Warn().Err(err).Msg("Cache warm-up failed")
		} else if warmed > 0 {
			logging.Info().Int("entries", warmed).Msg("Cache warmed from store")
		}
	}

	sessions := session.NewRegistry()
	handler := api.NewHandler(engine, recCache, sessions, datasets, logging.Logger())
	router := api.NewRouter(handler, api.RouterConfig{
		APIKey:      cfg.Server.APIKey,
		RateLimit:   cfg.Server.RateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervision tree")
	}

	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
	if cfg.Training.Interval > 0 {
		tree.AddBackgroundService(services.NewTrainService(
			datasets, engine, recCache, cfg.Training.Interval, logging.Logger()))
	}
	tree.AddBackgroundService(services.NewSessionSweepService(
		sessions, cfg.Session.MaxAge, cfg.Session.SweepInterval, logging.Logger()))
	if cfg.Prewarm.Enabled {
		tree.AddBackgroundService(services.NewPrewarmService(engine, recCache, services.PrewarmConfig{
			Interval: cfg.Prewarm.Interval,
			Users:    cfg.Prewarm.Users,
		}, logging.Logger()))
	}

	logging.Info().Str("addr", server.Addr).Msg("Starting supervision tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervision tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Stopped gracefully")
}
