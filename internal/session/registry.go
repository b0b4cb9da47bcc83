// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session ID is unknown or already closed.
var ErrNotFound = errors.New("session not found")

// maxSessions bounds the registry; Create fails once it is full so a
// misbehaving client cannot exhaust memory.
const maxSessions = 10000

// ErrRegistryFull is returned by Create when the registry is at capacity.
var ErrRegistryFull = errors.New("session registry full")

// Registry holds the live sessions keyed by opaque UUID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*State),
	}
}

// Create starts a new session and returns its ID.
func (r *Registry) Create() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= maxSessions {
		return "", ErrRegistryFull
	}

	id := uuid.NewString()
	r.sessions[id] = NewState()
	return id, nil
}

// Get returns the state for a session ID.
func (r *Registry) Get(id string) (*State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

// Close ends a session and discards its state.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire removes sessions older than maxAge and returns how many were
// dropped. Called periodically so abandoned sessions do not accumulate.
func (r *Registry) Expire(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, st := range r.sessions {
		if st.StartedAt().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
