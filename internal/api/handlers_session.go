// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/commendatus/internal/metrics"
	"github.com/tomtom215/commendatus/internal/session"
)

// decodeJSON decodes a request body and closes it.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close() //nolint:errcheck // read-side close
	return json.NewDecoder(r.Body).Decode(v)
}

// sessionState loads the session named in the route, writing a 404 when
// it does not exist.
func (h *Handler) sessionState(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	id := chi.URLParam(r, "sessionID")
	st, err := h.sessions.Get(id)
	if err != nil {
		NewResponseWriter(w, r).NotFound("session not found")
		return nil, false
	}
	return st, true
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := h.sessions.Create()
	if err != nil {
		h.logger.Error().Err(err).Msg("session create failed")
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "session limit reached")
		return
	}

	rw.Created(map[string]string{"session_id": id})
}

// CloseSession handles DELETE /api/v1/sessions/{sessionID}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		rw.NotFound("session not found")
		return
	}
	rw.Success(map[string]string{"status": "closed"})
}

// sessionEventRequest is the body of POST /api/v1/sessions/{sessionID}/events.
type sessionEventRequest struct {
	ItemID int    `json:"item_id" validate:"required,gt=0"`
	Event  string `json:"event" validate:"required,oneof=view click"`
}

// RecordSessionEvent handles POST /api/v1/sessions/{sessionID}/events.
func (h *Handler) RecordSessionEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	st, ok := h.sessionState(w, r)
	if !ok {
		return
	}

	var req sessionEventRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		rw.ValidationError("event must be view or click with a positive item_id", err.Error())
		return
	}

	now := time.Now()
	switch req.Event {
	case "view":
		st.RecordView(req.ItemID, now)
	case "click":
		st.RecordClick(req.ItemID, now)
	}

	rw.Success(map[string]string{"status": "recorded"})
}

// SessionStatus handles GET /api/v1/sessions/{sessionID}: per-item
// engagement summaries including click-through rate.
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := h.sessionState(w, r)
	if !ok {
		return
	}

	NewResponseWriter(w, r).Success(map[string]any{
		"started_at": st.StartedAt(),
		"items":      st.Summary(),
	})
}

// sessionRecommendations is the payload for session recommendation
// endpoints.
type sessionRecommendations struct {
	SessionID string `json:"session_id"`
	Items     []int  `json:"items"`
	Weighted  bool   `json:"weighted"`
}

// SessionRecommendations handles GET /api/v1/sessions/{sessionID}/recommendations.
//
// Items the session engaged with are scored by recency-decayed weights;
// a session with no events falls back to an unweighted recommendation
// over its (empty) item list, which yields the engine's canonical-order
// fallback.
func (h *Handler) SessionRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	st, ok := h.sessionState(w, r)
	if !ok {
		return
	}
	topK, err := topKQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	start := time.Now()
	weights := st.Weights(time.Now())

	var items []int
	if len(weights) == 0 {
		items = h.engine.RecommendForSession(st.Items(), topK)
	} else {
		items = h.engine.RecommendForSessionWeighted(weights, topK)
	}
	metrics.RecommendDuration.WithLabelValues("session").Observe(time.Since(start).Seconds())

	rw.Success(sessionRecommendations{
		SessionID: chi.URLParam(r, "sessionID"),
		Items:     items,
		Weighted:  len(weights) > 0,
	})
}
