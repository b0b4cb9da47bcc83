// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/commendatus/internal/metrics"
)

// Recommender computes a recommendation list on a cache miss.
// recommend.Engine satisfies it.
type Recommender interface {
	Recommend(userID, topK int) ([]int, error)
}

// Config contains cache parameters.
type Config struct {
	// Capacity is the maximum number of in-memory entries. Default: 200.
	Capacity int `json:"capacity" koanf:"capacity"`

	// TTL is how long an entry stays valid after it was stored, in both
	// tiers. Default: 24h.
	TTL time.Duration `json:"ttl" koanf:"ttl"`
}

// DefaultConfig returns cache defaults.
func DefaultConfig() Config {
	return Config{
		Capacity: 200,
		TTL:      24 * time.Hour,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", c.TTL)
	}
	return nil
}

// RecommendationCache is the two-tier cache in front of the engine. A nil
// store runs the cache memory-only.
type RecommendationCache struct {
	config      Config
	recommender Recommender
	memory      *LRU
	store       Store
	logger      zerolog.Logger
}

// New creates a recommendation cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, recommender Recommender, store Store, logger zerolog.Logger) (*RecommendationCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if recommender == nil {
		return nil, fmt.Errorf("recommender is required")
	}
	return &RecommendationCache{
		config:      cfg,
		recommender: recommender,
		memory:      NewLRU(cfg.Capacity, cfg.TTL),
		store:       store,
		logger:      logger.With().Str("component", "cache").Logger(),
	}, nil
}

// Get returns the recommendation list for (userID, topK), serving from the
// memory tier when possible. On a miss the list is computed, cached in
// memory and written through to the store. The cached return value reports
// whether the memory tier answered.
//
// A store write failure is logged and counted but does not fail the call.
func (c *RecommendationCache) Get(ctx context.Context, userID, topK int) (items []int, cached bool, err error) {
	key := Key{UserID: userID, TopK: topK}

	if entry, ok := c.memory.Get(key); ok {
		metrics.CacheHits.WithLabelValues("memory").Inc()
		return entry.Items, true, nil
	}
	metrics.CacheMisses.WithLabelValues("memory").Inc()

	items, err = c.compute(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return items, false, nil
}

// Refresh recomputes the recommendation list unconditionally and
// overwrites both tiers.
func (c *RecommendationCache) Refresh(ctx context.Context, userID, topK int) ([]int, error) {
	return c.compute(ctx, Key{UserID: userID, TopK: topK})
}

// compute runs the engine and writes the result to both tiers.
func (c *RecommendationCache) compute(ctx context.Context, key Key) ([]int, error) {
	start := time.Now()
	items, err := c.recommender.Recommend(key.UserID, key.TopK)
	if err != nil {
		return nil, err
	}
	metrics.RecommendDuration.WithLabelValues("user").Observe(time.Since(start).Seconds())

	entry := Entry{Items: items, StoredAt: time.Now()}
	c.memory.Add(key, entry)

	if c.store != nil {
		if err := c.store.Put(ctx, key, entry); err != nil {
			metrics.CacheStoreWriteErrors.Inc()
			c.logger.Warn().
				Err(err).
				Int("user_id", key.UserID).
				Int("top_k", key.TopK).
				Msg("store write failed, serving from memory only")
		}
	}

	return items, nil
}

// Cached reports whether an unexpired entry exists in either tier,
// without recomputing or touching recency order.
func (c *RecommendationCache) Cached(ctx context.Context, userID, topK int) bool {
	key := Key{UserID: userID, TopK: topK}

	if c.memory.Contains(key) {
		return true
	}
	if c.store == nil {
		return false
	}

	entry, result, err := c.store.Get(ctx, key)
	if err != nil || result != StoreHit {
		return false
	}
	return time.Since(entry.StoredAt) <= c.config.TTL
}

// Prewarm refreshes the cache for each user in order and returns how many
// were warmed. Stops early if the context is canceled or the engine is
// not trained.
func (c *RecommendationCache) Prewarm(ctx context.Context, userIDs []int, topK int) (int, error) {
	warmed := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := c.Refresh(ctx, userID, topK); err != nil {
			return warmed, fmt.Errorf("prewarm user %d: %w", userID, err)
		}
		warmed++
	}
	return warmed, nil
}

// WarmFromStore loads the most recent unexpired persisted entries into the
// memory tier. Malformed entries are counted and skipped; a store failure
// is returned but callers treat warming as best-effort.
func (c *RecommendationCache) WarmFromStore(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}

	entries, malformed, err := c.store.LoadRecent(ctx, c.config.Capacity, c.config.TTL)
	if malformed > 0 {
		metrics.CacheMalformedEntries.Add(float64(malformed))
		c.logger.Warn().Int("malformed", malformed).Msg("skipped malformed persisted entries")
	}
	if err != nil {
		return 0, fmt.Errorf("warm from store: %w", err)
	}

	// LoadRecent returns newest first; inserting in reverse leaves the
	// newest entry at the front of the recency list.
	for i := len(entries) - 1; i >= 0; i-- {
		c.memory.Add(entries[i].Key, entries[i].Entry)
	}

	c.logger.Info().Int("entries", len(entries)).Msg("memory tier warmed from store")
	return len(entries), nil
}

// Clear drops the memory tier. The store is untouched; its entries age
// out via TTL.
func (c *RecommendationCache) Clear() {
	c.memory.Clear()
}

// Stats returns memory-tier hit/miss counts and size.
func (c *RecommendationCache) Stats() (hits, misses int64, size int) {
	return c.memory.Stats()
}
