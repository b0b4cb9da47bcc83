// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TopUserSource picks the most active users; nil means not trained yet.
type TopUserSource interface {
	TopUsers(n int) []int
}

// Prewarmer computes and caches recommendations for a batch of users.
type Prewarmer interface {
	Prewarm(ctx context.Context, userIDs []int, topK int) (int, error)
}

// PrewarmConfig holds the prewarm loop's schedule and batch size.
type PrewarmConfig struct {
	// Interval is how often to rewarm. Defaults to 24h.
	Interval time.Duration

	// Users is how many of the most active users to warm. Defaults to 20.
	Users int

	// TopK is the list size to warm; 0 uses the engine default.
	TopK int
}

// PrewarmService periodically precomputes recommendations for the most
// active users so their reads land in the cache.
type PrewarmService struct {
	source TopUserSource
	warmer Prewarmer
	config PrewarmConfig
	logger zerolog.Logger
}

// NewPrewarmService creates the prewarm loop.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPrewarmService(source TopUserSource, warmer Prewarmer, cfg PrewarmConfig, logger zerolog.Logger) *PrewarmService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Users <= 0 {
		cfg.Users = 20
	}
	return &PrewarmService{
		source: source,
		warmer: warmer,
		config: cfg,
		logger: logger.With().Str("service", "prewarm").Logger(),
	}
}

// Serve implements suture.Service.
func (s *PrewarmService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Int("users", s.config.Users).
		Msg("prewarm service running")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("prewarm service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn().Err(err).Msg("prewarm failed")
			}
		}
	}
}

// RunOnce warms the cache for the current top users. A not-yet-trained
// model is not an error; the next tick retries.
func (s *PrewarmService) RunOnce(ctx context.Context) error {
	users := s.source.TopUsers(s.config.Users)
	if users == nil {
		s.logger.Debug().Msg("model not trained, skipping prewarm")
		return nil
	}

	start := time.Now()
	warmed, err := s.warmer.Prewarm(ctx, users, s.config.TopK)
	if err != nil {
		return err
	}

	s.logger.Info().
		Int("warmed", warmed).
		Dur("duration", time.Since(start)).
		Msg("cache prewarm complete")
	return nil
}

// String identifies the service in suture logs.
func (s *PrewarmService) String() string {
	return "prewarm-loop"
}
