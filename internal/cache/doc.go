// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

/*
Package cache implements the two-tier recommendation result cache.

The fast tier is an in-memory LRU keyed by (user ID, top-k) with a hard
capacity and per-entry TTL. The durable tier is a BadgerDB store holding
the same entries as JSON with a stored-at timestamp, so recommendations
survive restarts: on startup the cache loads the most recent unexpired
entries back into memory.

# Read path

Get checks the memory tier first. A hit refreshes the entry's recency rank
and returns a copy. A miss computes the recommendation through the engine,
inserts the result into memory (evicting the least recently used entry
past capacity) and writes it through to the store. A failed store write is
logged and counted but never fails the request; the durable tier is an
optimization, not a dependency.

# Expiry

Entries expire a fixed TTL after they were stored, in both tiers. The
memory tier expires lazily on access; the store tier filters expired
entries during the startup load and on read.
*/
package cache
