// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

// Package session tracks per-session engagement with items and turns it
// into recency-decayed weights for session-based recommendations.
//
// Each session keeps a fixed-shape record per item: view and click counts
// plus a bounded ring of recent event timestamps. Weights decay
// exponentially from the most recent event, so an item browsed an hour ago
// contributes far less than one clicked seconds ago.
//
// # Thread Safety
//
// State and Registry are safe for concurrent use. All exported methods
// take the internal mutex; weight computation copies what it needs and
// never holds the lock across engine calls.
package session
