// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

// Package recommend implements the collaborative-filtering recommendation engine.
//
// # Architecture
//
// The engine builds a dense user-item weight matrix from interaction events,
// computes pairwise cosine similarity over users and over items, and serves
// two kinds of requests:
//
//   - User-based: similarity-weighted aggregation over the 20 nearest
//     neighbors of a known user.
//   - Session-based: item-item similarity aggregation over the items an
//     anonymous session has engaged with, weighted by recency-decayed
//     engagement signals supplied by the caller.
//
// # Design Principles
//
//   - Deterministic: same interactions produce identical ordered output.
//     All ties are broken by ascending ID order, never map iteration order.
//   - Atomic retraining: a new model is built off to the side and published
//     with a single pointer swap. Readers never observe a partially built
//     matrix/similarity pair.
//   - Data availability is not an error: an unknown user yields an empty
//     result, an untrained model yields ErrUntrained, and session requests
//     against an untrained model fall back to canonical item order.
//
// # Thread Safety
//
// The engine is safe for concurrent use. Trained model state is immutable
// once published; recommendation reads only hold the model lock long enough
// to load the current pointer.
package recommend
