// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// epsilon guards the normalizing division when every selected neighbor has
// similarity 0 (or every session weight is 0).
const epsilon = 1e-9

// Config contains engine parameters.
type Config struct {
	// Neighborhood is the number of nearest users aggregated per
	// recommendation. Default: 20.
	Neighborhood int `json:"neighborhood" koanf:"neighborhood"`

	// DefaultK is the number of recommendations returned when the caller
	// does not specify one. Default: 6.
	DefaultK int `json:"default_k" koanf:"default_k"`

	// MaxK caps the number of recommendations per request. Default: 50.
	MaxK int `json:"max_k" koanf:"max_k"`
}

// DefaultConfig returns engine defaults.
func DefaultConfig() Config {
	return Config{
		Neighborhood: 20,
		DefaultK:     6,
		MaxK:         50,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Neighborhood <= 0 {
		return fmt.Errorf("neighborhood must be positive, got %d", c.Neighborhood)
	}
	if c.DefaultK <= 0 {
		return fmt.Errorf("default_k must be positive, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max_k %d must be >= default_k %d", c.MaxK, c.DefaultK)
	}
	return nil
}

// model bundles the matrix with both similarity matrices. The three are
// built together and published together; no reader can observe the matrix
// of one training run paired with the similarities of another.
type model struct {
	matrix  *Matrix
	userSim [][]float64
	itemSim [][]float64

	// topUsers lists user IDs by descending interaction count, ties by
	// ascending ID. Consumed by cache prewarming.
	topUsers []int

	version          int
	trainedAt        time.Time
	interactionCount int
}

// Engine computes user-based and session-based recommendations from a
// trained collaborative-filtering model. It is safe for concurrent use.
type Engine struct {
	config Config
	logger zerolog.Logger

	mu    sync.RWMutex
	model *model
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Train builds a fresh matrix and similarity matrices from the given
// interactions and publishes them atomically. An empty input publishes an
// empty model, which recommendation calls treat as untrained.
func (e *Engine) Train(ctx context.Context, interactions []Interaction) error {
	start := time.Now()

	matrix := BuildMatrix(interactions)
	if err := ctx.Err(); err != nil {
		return err
	}

	next := &model{
		matrix:           matrix,
		trainedAt:        time.Now(),
		interactionCount: len(interactions),
	}

	if !matrix.Empty() {
		next.userSim = UserSimilarity(matrix)
		if err := ctx.Err(); err != nil {
			return err
		}
		next.itemSim = ItemSimilarity(matrix)
		next.topUsers = usersByActivity(interactions)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	next.version = 1
	if e.model != nil {
		next.version = e.model.version + 1
	}
	e.model = next
	e.mu.Unlock()

	e.logger.Info().
		Int("users", len(matrix.Users)).
		Int("items", len(matrix.Items)).
		Int("interactions", len(interactions)).
		Int("version", next.version).
		Dur("duration", time.Since(start)).
		Msg("model trained")

	return nil
}

// current returns the published model, or nil if none is usable.
func (e *Engine) current() *model {
	e.mu.RLock()
	m := e.model
	e.mu.RUnlock()
	if m == nil || m.matrix.Empty() {
		return nil
	}
	return m
}

// Recommend returns up to topK item IDs for a known user, ranked by
// similarity-weighted aggregation over the user's nearest neighbors.
//
// Returns ErrUntrained before the first non-empty training run. An unknown
// user is not an error: it yields an empty result (cold start).
func (e *Engine) Recommend(userID, topK int) ([]int, error) {
	topK = e.clampK(topK)

	m := e.current()
	if m == nil {
		return nil, ErrUntrained
	}

	userIdx, ok := m.matrix.UserIndex(userID)
	if !ok {
		return []int{}, nil
	}

	neighbors := topNeighbors(m.userSim[userIdx], e.config.Neighborhood)

	scores := make([]float64, len(m.matrix.Items))
	var simTotal float64
	for _, n := range neighbors {
		sim := m.userSim[userIdx][n]
		simTotal += sim
		if sim == 0 {
			continue
		}
		for j, w := range m.matrix.Weights[n] {
			scores[j] += sim * w
		}
	}
	norm := simTotal + epsilon
	for j := range scores {
		scores[j] /= norm
	}

	// Already-interacted items must rank below genuine zero-score candidates.
	for j, w := range m.matrix.Weights[userIdx] {
		if w > 0 {
			scores[j] = -1
		}
	}

	return itemsByScore(m.matrix.Items, scores, topK), nil
}

// RecommendForSession returns up to topK item IDs for an anonymous session,
// treating every provided item with weight 1. Used when no engagement
// signal is available yet.
func (e *Engine) RecommendForSession(itemIDs []int, topK int) []int {
	weights := make(map[int]float64, len(itemIDs))
	for _, id := range itemIDs {
		weights[id] = 1
	}
	return e.RecommendForSessionWeighted(weights, topK)
}

// RecommendForSessionWeighted returns up to topK item IDs scored by
// weight-normalized item-item similarity aggregation. Items present in the
// input weights are excluded from the result.
//
// Without a trained model, or when none of the weighted items are known to
// the engine, the first topK items in canonical item order are returned as
// a deterministic content-free fallback (empty if the engine has no items).
func (e *Engine) RecommendForSessionWeighted(weights map[int]float64, topK int) []int {
	topK = e.clampK(topK)

	m := e.current()
	if m == nil {
		return []int{}
	}

	scores := make([]float64, len(m.matrix.Items))
	var total float64
	for id, w := range weights {
		if w <= 0 {
			continue
		}
		idx, ok := m.matrix.ItemIndex(id)
		if !ok {
			continue
		}
		for j, sim := range m.itemSim[idx] {
			scores[j] += w * sim
		}
		total += w
	}

	if total == 0 {
		return firstK(m.matrix.Items, topK)
	}

	norm := total + epsilon
	for j := range scores {
		scores[j] /= norm
	}

	for id := range weights {
		if idx, ok := m.matrix.ItemIndex(id); ok {
			scores[idx] = -1
		}
	}

	return itemsByScore(m.matrix.Items, scores, topK)
}

// TopUsers returns up to n user IDs ordered by descending interaction
// count. Returns nil before the first non-empty training run.
func (e *Engine) TopUsers(n int) []int {
	m := e.current()
	if m == nil {
		return nil
	}
	if n > len(m.topUsers) {
		n = len(m.topUsers)
	}
	out := make([]int, n)
	copy(out, m.topUsers[:n])
	return out
}

// Status reports the current trained state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	m := e.model
	e.mu.RUnlock()

	if m == nil {
		return Status{}
	}
	return Status{
		Trained:          !m.matrix.Empty(),
		ModelVersion:     m.version,
		TrainedAt:        m.trainedAt,
		UserCount:        len(m.matrix.Users),
		ItemCount:        len(m.matrix.Items),
		InteractionCount: m.interactionCount,
	}
}

func (e *Engine) clampK(topK int) int {
	if topK <= 0 {
		topK = e.config.DefaultK
	}
	if topK > e.config.MaxK {
		topK = e.config.MaxK
	}
	return topK
}

// topNeighbors returns the indices of the n largest values in row,
// descending, ties broken by ascending index.
func topNeighbors(row []float64, n int) []int {
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return row[idx[a]] > row[idx[b]]
	})
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}

// itemsByScore returns the IDs of the topK highest-scoring items,
// descending, ties broken by ascending column index. Items with negative
// scores (excluded candidates) are never returned, so results may be
// shorter than topK.
func itemsByScore(items []int, scores []float64, topK int) []int {
	idx := make([]int, 0, len(items))
	for i := range items {
		if scores[i] >= 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if topK > len(idx) {
		topK = len(idx)
	}
	out := make([]int, topK)
	for i := 0; i < topK; i++ {
		out[i] = items[idx[i]]
	}
	return out
}

func firstK(items []int, k int) []int {
	if k > len(items) {
		k = len(items)
	}
	out := make([]int, k)
	copy(out, items[:k])
	return out
}

// usersByActivity orders user IDs by descending interaction count, ties by
// ascending ID.
func usersByActivity(interactions []Interaction) []int {
	counts := make(map[int]int)
	for _, in := range interactions {
		counts[in.UserID]++
	}
	users := make([]int, 0, len(counts))
	for id := range counts {
		users = append(users, id)
	}
	sort.Slice(users, func(a, b int) bool {
		if counts[users[a]] != counts[users[b]] {
			return counts[users[a]] > counts[users[b]]
		}
		return users[a] < users[b]
	})
	return users
}
