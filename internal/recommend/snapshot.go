// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package recommend

import (
	"fmt"
	"time"
)

// ModelSnapshot is the serializable form of a trained model: the weight
// matrix, both similarity matrices, and the bookkeeping a restored engine
// needs to behave exactly like the one that trained it. All fields are
// exported for gob encoding.
type ModelSnapshot struct {
	Users   []int
	Items   []int
	Weights [][]float64
	UserSim [][]float64
	ItemSim [][]float64

	TopUsers         []int
	Version          int
	TrainedAt        time.Time
	InteractionCount int
}

// Snapshot captures the current model for persistence. Returns nil before
// the first non-empty training run. The snapshot shares the model's
// underlying slices; treat it as read-only.
func (e *Engine) Snapshot() *ModelSnapshot {
	m := e.current()
	if m == nil {
		return nil
	}
	return &ModelSnapshot{
		Users:            m.matrix.Users,
		Items:            m.matrix.Items,
		Weights:          m.matrix.Weights,
		UserSim:          m.userSim,
		ItemSim:          m.itemSim,
		TopUsers:         m.topUsers,
		Version:          m.version,
		TrainedAt:        m.trainedAt,
		InteractionCount: m.interactionCount,
	}
}

// Restore publishes a previously snapshotted model, replacing whatever is
// currently trained. Dimensions are validated so a truncated or mismatched
// snapshot cannot produce out-of-range reads later.
func (e *Engine) Restore(snap *ModelSnapshot) error {
	if snap == nil {
		return fmt.Errorf("restore: nil snapshot")
	}
	if len(snap.Users) == 0 || len(snap.Items) == 0 {
		return fmt.Errorf("restore: empty model")
	}
	if len(snap.Weights) != len(snap.Users) {
		return fmt.Errorf("restore: %d weight rows for %d users", len(snap.Weights), len(snap.Users))
	}
	for i, row := range snap.Weights {
		if len(row) != len(snap.Items) {
			return fmt.Errorf("restore: weight row %d has %d columns for %d items", i, len(row), len(snap.Items))
		}
	}
	if err := validateSquare("user similarity", snap.UserSim, len(snap.Users)); err != nil {
		return err
	}
	if err := validateSquare("item similarity", snap.ItemSim, len(snap.Items)); err != nil {
		return err
	}
	if snap.Version < 1 {
		return fmt.Errorf("restore: invalid model version %d", snap.Version)
	}

	next := &model{
		matrix:           restoreMatrix(snap.Users, snap.Items, snap.Weights),
		userSim:          snap.UserSim,
		itemSim:          snap.ItemSim,
		topUsers:         snap.TopUsers,
		version:          snap.Version,
		trainedAt:        snap.TrainedAt,
		interactionCount: snap.InteractionCount,
	}

	e.mu.Lock()
	e.model = next
	e.mu.Unlock()

	e.logger.Info().
		Int("users", len(snap.Users)).
		Int("items", len(snap.Items)).
		Int("version", snap.Version).
		Time("trained_at", snap.TrainedAt).
		Msg("model restored")

	return nil
}

func validateSquare(name string, m [][]float64, n int) error {
	if len(m) != n {
		return fmt.Errorf("restore: %s has %d rows, want %d", name, len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("restore: %s row %d has %d columns, want %d", name, i, len(row), n)
		}
	}
	return nil
}
