// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionExpirer drops sessions older than maxAge, returning how many
// were removed.
type SessionExpirer interface {
	Expire(maxAge time.Duration) int
}

// SessionSweepService periodically expires abandoned sessions so the
// registry never fills up with states nobody will read again.
type SessionSweepService struct {
	sessions SessionExpirer
	maxAge   time.Duration
	interval time.Duration
	logger   zerolog.Logger
}

// NewSessionSweepService creates the sweep loop. maxAge defaults to 30m
// and interval to 5m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSessionSweepService(sessions SessionExpirer, maxAge, interval time.Duration, logger zerolog.Logger) *SessionSweepService {
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionSweepService{
		sessions: sessions,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger.With().Str("service", "session-sweep").Logger(),
	}
}

// Serve implements suture.Service.
func (s *SessionSweepService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("max_age", s.maxAge).
		Dur("interval", s.interval).
		Msg("session sweep running")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("session sweep shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce performs a single expiry sweep.
func (s *SessionSweepService) RunOnce() {
	if removed := s.sessions.Expire(s.maxAge); removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("expired idle sessions")
	}
}

// String identifies the service in suture logs.
func (s *SessionSweepService) String() string {
	return "session-sweep"
}
