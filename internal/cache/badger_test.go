// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package cache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestBadgerStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key := Key{UserID: 42, TopK: 6}
	stored := time.Now().Truncate(time.Millisecond)
	entry := Entry{Items: []int{10, 20, 30}, StoredAt: stored}

	if err := s.Put(ctx, key, entry); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, result, err := s.Get(ctx, key)
	if err != nil || result != StoreHit {
		t.Fatalf("Get() = %v, %v, want hit", result, err)
	}
	if !reflect.DeepEqual(got.Items, entry.Items) {
		t.Errorf("Items = %v, want %v", got.Items, entry.Items)
	}
	// Timestamps round-trip through float seconds; sub-millisecond drift
	// is acceptable.
	if drift := got.StoredAt.Sub(stored); drift < -time.Millisecond || drift > time.Millisecond {
		t.Errorf("StoredAt drifted by %v", drift)
	}
}

func TestBadgerStore_GetMiss(t *testing.T) {
	s := newTestStore(t)

	_, result, err := s.Get(context.Background(), Key{UserID: 1, TopK: 1})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if result != StoreMiss {
		t.Errorf("Get() result = %v, want miss", result)
	}
}

func TestBadgerStore_GetMalformed(t *testing.T) {
	s := newTestStore(t)
	key := Key{UserID: 7, TopK: 3}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(key), []byte("not json"))
	})
	if err != nil {
		t.Fatalf("seed malformed value: %v", err)
	}

	_, result, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if result != StoreMalformed {
		t.Errorf("Get() result = %v, want malformed", result)
	}
}

func TestBadgerStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := Key{UserID: 1, TopK: 5}

	if err := s.Put(ctx, key, Entry{Items: []int{1}, StoredAt: time.Now()}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, result, _ := s.Get(ctx, key); result != StoreMiss {
		t.Errorf("Get() after Delete = %v, want miss", result)
	}

	// Deleting an absent key is fine.
	if err := s.Delete(ctx, Key{UserID: 999, TopK: 1}); err != nil {
		t.Errorf("Delete(absent) error = %v", err)
	}
}

func TestBadgerStore_LoadRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// Three fresh entries at staggered ages, one expired, one malformed.
	fresh := []struct {
		key Key
		age time.Duration
	}{
		{Key{UserID: 1, TopK: 5}, 3 * time.Hour},
		{Key{UserID: 2, TopK: 5}, 1 * time.Hour},
		{Key{UserID: 3, TopK: 5}, 2 * time.Hour},
	}
	for _, f := range fresh {
		entry := Entry{Items: []int{f.key.UserID * 10}, StoredAt: now.Add(-f.age)}
		if err := s.Put(ctx, f.key, entry); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	expired := Entry{Items: []int{99}, StoredAt: now.Add(-48 * time.Hour)}
	if err := s.Put(ctx, Key{UserID: 9, TopK: 5}, expired); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recKeyPrefix+"broken"), []byte("{"))
	})
	if err != nil {
		t.Fatalf("seed malformed entry: %v", err)
	}

	entries, malformed, err := s.LoadRecent(ctx, 200, 24*time.Hour)
	if err != nil {
		t.Fatalf("LoadRecent() error = %v", err)
	}
	if malformed != 1 {
		t.Errorf("malformed = %d, want 1", malformed)
	}

	// Newest first, expired and malformed absent.
	gotUsers := make([]int, len(entries))
	for i, pe := range entries {
		gotUsers[i] = pe.Key.UserID
	}
	if want := []int{2, 3, 1}; !reflect.DeepEqual(gotUsers, want) {
		t.Errorf("LoadRecent() users = %v, want %v", gotUsers, want)
	}
}

func TestBadgerStore_LoadRecent_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 5; i++ {
		entry := Entry{Items: []int{i}, StoredAt: now.Add(-time.Duration(i) * time.Minute)}
		if err := s.Put(ctx, Key{UserID: i, TopK: 5}, entry); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	entries, _, err := s.LoadRecent(ctx, 2, 24*time.Hour)
	if err != nil {
		t.Fatalf("LoadRecent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Key.UserID != 1 || entries[1].Key.UserID != 2 {
		t.Errorf("LoadRecent() kept %v, want the two newest", entries)
	}
}

func TestParseStoreKey(t *testing.T) {
	tests := []struct {
		raw    string
		want   Key
		wantOK bool
	}{
		{"rec:42:6", Key{UserID: 42, TopK: 6}, true},
		{"rec:broken", Key{}, false},
		{"rec:1:", Key{}, false},
		{"other:1:2", Key{}, false},
	}
	for _, tt := range tests {
		got, ok := parseStoreKey([]byte(tt.raw))
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseStoreKey(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
