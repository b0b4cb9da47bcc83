// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/commendatus/internal/recommend"
)

// Mode names the active dataset source.
type Mode string

const (
	// ModeSample is the bounded dense sample.
	ModeSample Mode = "sample"

	// ModeFull is the complete event file.
	ModeFull Mode = "full"
)

// Trainer rebuilds the model from a fresh interaction set.
// recommend.Engine satisfies it.
type Trainer interface {
	Train(ctx context.Context, interactions []recommend.Interaction) error
}

// CacheClearer drops cached recommendation results after the model
// changes. cache.RecommendationCache satisfies it.
type CacheClearer interface {
	Clear()
}

// Status reports the active dataset source.
type Status struct {
	Mode     Mode      `json:"mode"`
	LoadedAt time.Time `json:"loaded_at"`
	Stats    LoadStats `json:"stats"`
}

// Manager owns the active dataset source. Switching sources reloads the
// interactions, retrains the engine and clears the cached results, in
// that order, so no cached list can outlive the model it came from.
type Manager struct {
	loader  *Loader
	trainer Trainer
	cache   CacheClearer
	logger  zerolog.Logger

	mu     sync.Mutex
	status Status
}

// NewManager creates a dataset manager.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(loader *Loader, trainer Trainer, cache CacheClearer, logger zerolog.Logger) *Manager {
	return &Manager{
		loader:  loader,
		trainer: trainer,
		cache:   cache,
		logger:  logger.With().Str("component", "dataset").Logger(),
	}
}

// Switch loads the requested source, retrains the engine on it and clears
// cached recommendations. Switches are serialized; a failed load or train
// leaves the previous model and status in place.
func (m *Manager) Switch(ctx context.Context, mode Mode) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		interactions []recommend.Interaction
		stats        LoadStats
		err          error
	)
	switch mode {
	case ModeSample:
		interactions, stats, err = m.loader.LoadSample(ctx)
	case ModeFull:
		interactions, stats, err = m.loader.LoadFull(ctx)
	default:
		return m.status, fmt.Errorf("unknown dataset mode %q", mode)
	}
	if err != nil {
		return m.status, fmt.Errorf("load %s dataset: %w", mode, err)
	}

	if err := m.trainer.Train(ctx, interactions); err != nil {
		return m.status, fmt.Errorf("train on %s dataset: %w", mode, err)
	}

	if m.cache != nil {
		m.cache.Clear()
	}

	m.status = Status{
		Mode:     mode,
		LoadedAt: time.Now(),
		Stats:    stats,
	}
	m.logger.Info().
		Str("mode", string(mode)).
		Int("interactions", stats.Interactions).
		Msg("dataset switched")

	return m.status, nil
}

// Load returns the interactions for the active mode without retraining.
// Used by the retraining scheduler to rebuild the model from the same
// source.
func (m *Manager) Load(ctx context.Context) ([]recommend.Interaction, error) {
	m.mu.Lock()
	mode := m.status.Mode
	m.mu.Unlock()

	var (
		interactions []recommend.Interaction
		err          error
	)
	if mode == ModeFull {
		interactions, _, err = m.loader.LoadFull(ctx)
	} else {
		interactions, _, err = m.loader.LoadSample(ctx)
	}
	return interactions, err
}

// Status returns the active source description.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
