// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/commendatus/internal/metrics"
	"github.com/tomtom215/commendatus/internal/recommend"
)

// DatasetLoader reloads the active dataset's interactions.
type DatasetLoader interface {
	Load(ctx context.Context) ([]recommend.Interaction, error)
}

// Trainer rebuilds the model from interactions and reports its state.
type Trainer interface {
	Train(ctx context.Context, interactions []recommend.Interaction) error
	Status() recommend.Status
}

// CacheClearer drops cached recommendations after a retrain.
type CacheClearer interface {
	Clear()
}

// TrainService retrains the model on a fixed interval so recommendations
// track new interactions. An interval of zero disables the loop; the
// service then just waits for shutdown.
type TrainService struct {
	loader   DatasetLoader
	trainer  Trainer
	cache    CacheClearer
	interval time.Duration
	logger   zerolog.Logger
}

// NewTrainService creates the periodic training service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainService(
	loader DatasetLoader,
	trainer Trainer,
	cache CacheClearer,
	interval time.Duration,
	logger zerolog.Logger,
) *TrainService {
	return &TrainService{
		loader:   loader,
		trainer:  trainer,
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("service", "train").Logger(),
	}
}

// Serve implements suture.Service.
func (s *TrainService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info().Msg("periodic training disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info().Dur("interval", s.interval).Msg("training service running")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

// RunOnce performs a single reload-train-clear cycle.
func (s *TrainService) RunOnce(ctx context.Context) error {
	start := time.Now()

	interactions, err := s.loader.Load(ctx)
	if err != nil {
		metrics.RecordTraining(s.trainer.Status().ModelVersion, time.Since(start), err)
		return err
	}

	err = s.trainer.Train(ctx, interactions)
	status := s.trainer.Status()
	metrics.RecordTraining(status.ModelVersion, time.Since(start), err)
	if err != nil {
		return err
	}

	s.cache.Clear()
	s.logger.Info().
		Int("model_version", status.ModelVersion).
		Int("interactions", status.InteractionCount).
		Dur("duration", time.Since(start)).
		Msg("scheduled training complete")
	return nil
}

// String identifies the service in suture logs.
func (s *TrainService) String() string {
	return "train-loop"
}
