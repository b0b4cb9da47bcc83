// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

// Package supervisor builds the suture supervision tree that runs the
// service: the HTTP server in one layer and the background training and
// cache prewarm loops in another, so a crashing background loop never
// takes the API down with it.
package supervisor
