// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package cache

import (
	"sync"
	"time"

	"github.com/tomtom215/commendatus/internal/metrics"
)

// Key identifies one cached recommendation list.
type Key struct {
	UserID int
	TopK   int
}

// Entry is one cached recommendation list. Items is owned by the cache;
// accessors copy it.
type Entry struct {
	Items    []int
	StoredAt time.Time
}

// lruNode is a node in the doubly-linked recency list.
type lruNode struct {
	key       Key
	entry     Entry
	prev      *lruNode
	next      *lruNode
	expiresAt time.Time
}

// LRU is a thread-safe least-recently-used cache with TTL support. It
// pairs a doubly-linked list for recency order with a map for O(1)
// lookup, so Get, Add and eviction are all constant time.
//
// head.next is the most recently used node, tail.prev the least.
type LRU struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[Key]*lruNode
	head  *lruNode
	tail  *lruNode

	hits   int64
	misses int64
}

// NewLRU creates an LRU cache with the given capacity and TTL.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 200
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	c := &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[Key]*lruNode, capacity),
		head:     &lruNode{},
		tail:     &lruNode{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get retrieves an entry and marks it most recently used. Expired entries
// are removed and reported as misses.
func (c *LRU) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		c.misses++
		return Entry{}, false
	}
	if time.Now().After(node.expiresAt) {
		c.remove(node)
		c.misses++
		return Entry{}, false
	}

	c.moveToFront(node)
	c.hits++
	return copyEntry(node.entry), true
}

// Contains reports whether key holds an unexpired entry, without updating
// its recency rank.
func (c *LRU) Contains(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	return ok && !time.Now().After(node.expiresAt)
}

// Add inserts or replaces an entry, marking it most recently used. The
// entry expires ttl after its StoredAt time, so reloaded entries keep
// their original expiry. Exceeding capacity evicts the least recently
// used entry.
func (c *LRU) Add(key Key, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry = copyEntry(entry)
	expiresAt := entry.StoredAt.Add(c.ttl)

	if node, ok := c.items[key]; ok {
		node.entry = entry
		node.expiresAt = expiresAt
		c.moveToFront(node)
		return
	}

	node := &lruNode{
		key:       key,
		entry:     entry,
		expiresAt: expiresAt,
	}
	c.addToFront(node)
	c.items[key] = node

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Remove deletes an entry. Returns true if it was present.
func (c *LRU) Remove(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		return false
	}
	c.remove(node)
	return true
}

// Len returns the current number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops every entry.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[Key]*lruNode, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Stats returns hit/miss counts and the current size.
func (c *LRU) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items)
}

// List methods below must be called with the lock held.

func (c *LRU) addToFront(node *lruNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *LRU) moveToFront(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
	c.addToFront(node)
}

func (c *LRU) remove(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
	delete(c.items, node.key)
}

func (c *LRU) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.remove(oldest)
	metrics.CacheEvictions.Inc()
}

func copyEntry(e Entry) Entry {
	items := make([]int, len(e.Items))
	copy(items, e.Items)
	return Entry{Items: items, StoredAt: e.StoredAt}
}
