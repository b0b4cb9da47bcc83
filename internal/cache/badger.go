// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// recKeyPrefix namespaces recommendation entries in the shared database.
const recKeyPrefix = "rec:"

// persistedValue is the on-disk JSON shape of one cache entry. The
// timestamp is seconds since the Unix epoch.
type persistedValue struct {
	Items []int   `json:"items"`
	TS    float64 `json:"ts"`
}

// BadgerStore implements Store on a BadgerDB database. Each operation
// runs in its own short-lived transaction; concurrent writers are
// last-write-wins.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open BadgerDB database. The caller owns db
// unless Close is used.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens (or creates) a BadgerDB database at dir and wraps
// it. Badger's own logger is disabled; the caller logs at the cache
// boundary instead.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// Put persists an entry keyed by (user ID, top-k).
func (s *BadgerStore) Put(ctx context.Context, key Key, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(persistedValue{
		Items: entry.Items,
		TS:    float64(entry.StoredAt.UnixNano()) / float64(time.Second),
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(key), data)
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", storeKey(key), err)
	}
	return nil
}

// Get reads one entry back.
func (s *BadgerStore) Get(ctx context.Context, key Key) (Entry, StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, StoreUnavailable, err
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, StoreMiss, nil
	}
	if err != nil {
		return Entry{}, StoreUnavailable, fmt.Errorf("get %s: %w", storeKey(key), err)
	}

	entry, ok := decodeValue(raw)
	if !ok {
		return Entry{}, StoreMalformed, nil
	}
	return entry, StoreHit, nil
}

// Delete removes one entry.
func (s *BadgerStore) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", storeKey(key), err)
	}
	return nil
}

// LoadRecent scans every persisted entry, orders by stored-at descending,
// keeps the newest limit entries and drops those older than maxAge.
// Entries with unparseable keys or values are counted and skipped.
func (s *BadgerStore) LoadRecent(ctx context.Context, limit int, maxAge time.Duration) ([]PersistedEntry, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var loaded []PersistedEntry
	malformed := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			key, ok := parseStoreKey(item.Key())
			if !ok {
				malformed++
				continue
			}

			err := item.Value(func(val []byte) error {
				entry, ok := decodeValue(val)
				if !ok {
					malformed++
					return nil
				}
				loaded = append(loaded, PersistedEntry{Key: key, Entry: entry})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, malformed, fmt.Errorf("scan store: %w", err)
	}

	sort.SliceStable(loaded, func(a, b int) bool {
		return loaded[a].Entry.StoredAt.After(loaded[b].Entry.StoredAt)
	})
	if limit > 0 && len(loaded) > limit {
		loaded = loaded[:limit]
	}

	// Age filter applies after the recency cut, so a run of stale entries
	// cannot displace fresh ones beyond the limit.
	cutoff := time.Now().Add(-maxAge)
	fresh := loaded[:0]
	for _, pe := range loaded {
		if pe.Entry.StoredAt.Before(cutoff) {
			continue
		}
		fresh = append(fresh, pe)
	}

	return fresh, malformed, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func storeKey(key Key) []byte {
	return fmt.Appendf(nil, "%s%d:%d", recKeyPrefix, key.UserID, key.TopK)
}

func parseStoreKey(raw []byte) (Key, bool) {
	var key Key
	n, err := fmt.Sscanf(string(raw), recKeyPrefix+"%d:%d", &key.UserID, &key.TopK)
	if err != nil || n != 2 {
		return Key{}, false
	}
	return key, true
}

func decodeValue(raw []byte) (Entry, bool) {
	var v persistedValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return Entry{}, false
	}
	if v.Items == nil || v.TS <= 0 {
		return Entry{}, false
	}
	sec := int64(v.TS)
	nsec := int64((v.TS - float64(sec)) * float64(time.Second))
	return Entry{
		Items:    v.Items,
		StoredAt: time.Unix(sec, nsec),
	}, true
}
