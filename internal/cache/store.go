// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package cache

import (
	"context"
	"time"
)

// StoreResult classifies the outcome of a persistent-tier read so callers
// can distinguish a clean miss from an unreadable entry or an unreachable
// store.
type StoreResult int

const (
	// StoreHit means the entry was found and decoded.
	StoreHit StoreResult = iota

	// StoreMiss means no entry exists for the key.
	StoreMiss

	// StoreMalformed means an entry exists but could not be decoded. The
	// entry is treated as absent.
	StoreMalformed

	// StoreUnavailable means the store itself failed.
	StoreUnavailable
)

// String returns the result name for logging.
func (r StoreResult) String() string {
	switch r {
	case StoreHit:
		return "hit"
	case StoreMiss:
		return "miss"
	case StoreMalformed:
		return "malformed"
	case StoreUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// PersistedEntry is one entry read back from the durable tier.
type PersistedEntry struct {
	Key   Key
	Entry Entry
}

// Store is the durable tier of the recommendation cache.
type Store interface {
	// Put persists an entry, overwriting any previous value for the key.
	Put(ctx context.Context, key Key, entry Entry) error

	// Get reads one entry. err is non-nil only for StoreUnavailable.
	Get(ctx context.Context, key Key) (Entry, StoreResult, error)

	// Delete removes one entry. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// LoadRecent returns up to limit entries ordered by stored-at
	// descending, skipping entries older than maxAge. Malformed entries
	// are skipped and counted, never returned.
	LoadRecent(ctx context.Context, limit int, maxAge time.Duration) (entries []PersistedEntry, malformed int, err error)

	// Close releases the store.
	Close() error
}
