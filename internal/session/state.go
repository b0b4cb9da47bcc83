// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package session

import (
	"math"
	"sync"
	"time"
)

const (
	// maxTimestamps bounds the per-item event ring so a hot item cannot
	// grow session state without limit.
	maxTimestamps = 100

	// maxTrackedItems bounds the number of distinct items a single session
	// tracks.
	maxTrackedItems = 50

	// decayRate is the exponential decay constant applied per second since
	// the item's most recent event.
	decayRate = 0.01

	// clickWeight is the multiplier applied to clicks relative to views
	// when computing engagement weight.
	clickWeight = 2

	// ctrEpsilon guards the click-through-rate division for items with no
	// events of either kind.
	ctrEpsilon = 1e-9
)

// ItemStats holds the engagement record for one item within a session.
type ItemStats struct {
	Views  int
	Clicks int

	// timestamps is a ring of the most recent event times, oldest
	// overwritten first once full.
	timestamps []time.Time
	next       int
	full       bool
}

// record appends an event timestamp, overwriting the oldest once the ring
// is full.
func (s *ItemStats) record(ts time.Time) {
	if len(s.timestamps) < maxTimestamps {
		s.timestamps = append(s.timestamps, ts)
		return
	}
	s.timestamps[s.next] = ts
	s.next = (s.next + 1) % maxTimestamps
	s.full = true
}

// last returns the most recent event timestamp and whether one exists.
func (s *ItemStats) last() (time.Time, bool) {
	if len(s.timestamps) == 0 {
		return time.Time{}, false
	}
	idx := len(s.timestamps) - 1
	if s.full {
		idx = (s.next - 1 + maxTimestamps) % maxTimestamps
	}
	return s.timestamps[idx], true
}

// baseWeight is the undecayed engagement weight: views plus double-counted
// clicks.
func (s *ItemStats) baseWeight() float64 {
	return float64(s.Views + clickWeight*s.Clicks)
}

// CTR returns the item's click-through rate within the session.
func (s *ItemStats) CTR() float64 {
	return float64(s.Clicks) / (float64(s.Views+s.Clicks) + ctrEpsilon)
}

// ItemSummary reports one item's engagement within a session.
type ItemSummary struct {
	ItemID int     `json:"item_id"`
	Views  int     `json:"views"`
	Clicks int     `json:"clicks"`
	CTR    float64 `json:"ctr"`
}

// State is the engagement state of a single session.
type State struct {
	mu    sync.Mutex
	stats map[int]*ItemStats

	// order lists item IDs by first interaction, capped at
	// maxTrackedItems. It is the fallback input when no weights survive
	// decay.
	order []int

	startedAt time.Time
}

// NewState creates an empty session state.
func NewState() *State {
	return &State{
		stats:     make(map[int]*ItemStats),
		startedAt: time.Now(),
	}
}

// RecordView registers a view event for itemID at ts.
func (s *State) RecordView(itemID int, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statsFor(itemID)
	if st == nil {
		return
	}
	st.Views++
	st.record(ts)
}

// RecordClick registers a click event for itemID at ts.
func (s *State) RecordClick(itemID int, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statsFor(itemID)
	if st == nil {
		return
	}
	st.Clicks++
	st.record(ts)
}

// statsFor returns the stats record for itemID, creating it if the session
// has room for another item. Must be called with the lock held.
func (s *State) statsFor(itemID int) *ItemStats {
	if st, ok := s.stats[itemID]; ok {
		return st
	}
	if len(s.order) >= maxTrackedItems {
		return nil
	}
	st := &ItemStats{}
	s.stats[itemID] = st
	s.order = append(s.order, itemID)
	return st
}

// Weights returns the recency-decayed engagement weight per item as of
// now. Each item weighs (views + 2*clicks) * exp(-0.01 * secondsSinceLast);
// an item with counts but no recorded timestamp keeps its undecayed base
// weight. Items whose weight decays to zero or below are dropped.
func (s *State) Weights(now time.Time) map[int]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	weights := make(map[int]float64, len(s.stats))
	for itemID, st := range s.stats {
		w := st.baseWeight()
		if last, ok := st.last(); ok {
			elapsed := now.Sub(last).Seconds()
			if elapsed > 0 {
				w *= math.Exp(-decayRate * elapsed)
			}
		}
		if w > 0 {
			weights[itemID] = w
		}
	}
	return weights
}

// Items returns the session's item IDs in first-interaction order.
func (s *State) Items() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// Summary returns per-item engagement summaries in first-interaction order.
func (s *State) Summary() []ItemSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ItemSummary, 0, len(s.order))
	for _, itemID := range s.order {
		st := s.stats[itemID]
		out = append(out, ItemSummary{
			ItemID: itemID,
			Views:  st.Views,
			Clicks: st.Clicks,
			CTR:    st.CTR(),
		})
	}
	return out
}

// StartedAt returns when the session was created.
func (s *State) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}
