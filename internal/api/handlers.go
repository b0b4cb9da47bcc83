// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tomtom215/commendatus/internal/cache"
	"github.com/tomtom215/commendatus/internal/dataset"
	"github.com/tomtom215/commendatus/internal/evaluate"
	"github.com/tomtom215/commendatus/internal/metrics"
	"github.com/tomtom215/commendatus/internal/recommend"
	"github.com/tomtom215/commendatus/internal/session"
)

// Handler bundles the service components behind the HTTP endpoints.
type Handler struct {
	engine   *recommend.Engine
	cache    *cache.RecommendationCache
	sessions *session.Registry
	datasets *dataset.Manager
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandler creates the API handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(
	engine *recommend.Engine,
	recCache *cache.RecommendationCache,
	sessions *session.Registry,
	datasets *dataset.Manager,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		engine:   engine,
		cache:    recCache,
		sessions: sessions,
		datasets: datasets,
		validate: validator.New(),
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// userIDParam parses the {userID} route parameter.
func userIDParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "userID"))
}

// topKQuery parses the optional top_k query parameter; 0 means "use the
// engine default".
func topKQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("top_k")
	if raw == "" {
		return 0, nil
	}
	topK, err := strconv.Atoi(raw)
	if err != nil || topK <= 0 {
		return 0, errors.New("top_k must be a positive integer")
	}
	return topK, nil
}

// userRecommendations is the payload for user recommendation endpoints.
type userRecommendations struct {
	UserID int   `json:"user_id"`
	Items  []int `json:"items"`
	Cached bool  `json:"cached"`
}

// UserRecommendations handles GET /api/v1/recommendations/{userID}.
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, err := userIDParam(r)
	if err != nil {
		rw.BadRequest("user ID must be an integer")
		return
	}
	topK, err := topKQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	items, cached, err := h.cache.Get(r.Context(), userID, topK)
	if errors.Is(err, recommend.ErrUntrained) {
		rw.ModelNotTrained()
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", userID).Msg("recommendation failed")
		rw.InternalError("recommendation failed")
		return
	}

	rw.Success(userRecommendations{UserID: userID, Items: items, Cached: cached})
}

// RefreshRecommendations handles POST /api/v1/recommendations/{userID}/refresh.
func (h *Handler) RefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, err := userIDParam(r)
	if err != nil {
		rw.BadRequest("user ID must be an integer")
		return
	}
	topK, err := topKQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	items, err := h.cache.Refresh(r.Context(), userID, topK)
	if errors.Is(err, recommend.ErrUntrained) {
		rw.ModelNotTrained()
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", userID).Msg("refresh failed")
		rw.InternalError("refresh failed")
		return
	}

	rw.Success(userRecommendations{UserID: userID, Items: items})
}

// RecommendationStatus handles GET /api/v1/recommendations/{userID}/status.
func (h *Handler) RecommendationStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, err := userIDParam(r)
	if err != nil {
		rw.BadRequest("user ID must be an integer")
		return
	}
	topK, err := topKQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	rw.Success(map[string]bool{
		"cached": h.cache.Cached(r.Context(), userID, topK),
	})
}

// prewarmRequest is the body of POST /api/v1/cache/prewarm.
type prewarmRequest struct {
	// Users is how many of the most active users to warm.
	Users int `json:"users" validate:"omitempty,gt=0,lte=1000"`

	// TopK is the list size to warm; 0 uses the engine default.
	TopK int `json:"top_k" validate:"omitempty,gt=0"`
}

// PrewarmCache handles POST /api/v1/cache/prewarm.
func (h *Handler) PrewarmCache(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := prewarmRequest{Users: 20}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			rw.BadRequest("invalid JSON body")
			return
		}
		if err := h.validate.Struct(req); err != nil {
			rw.ValidationError("invalid prewarm request", err.Error())
			return
		}
	}

	users := h.engine.TopUsers(req.Users)
	if users == nil {
		rw.ModelNotTrained()
		return
	}

	warmed, err := h.cache.Prewarm(r.Context(), users, req.TopK)
	if err != nil {
		h.logger.Error().Err(err).Int("warmed", warmed).Msg("prewarm aborted")
		rw.InternalError("prewarm aborted")
		return
	}

	rw.Success(map[string]int{"warmed": warmed})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	hits, misses, size := h.cache.Stats()
	NewResponseWriter(w, r).Success(map[string]int64{
		"hits":   hits,
		"misses": misses,
		"size":   int64(size),
	})
}

// EngineStatus handles GET /api/v1/engine/status.
func (h *Handler) EngineStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.Status())
}

// TrainEngine handles POST /api/v1/engine/train: reloads the active
// dataset, retrains the model and drops cached results.
func (h *Handler) TrainEngine(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	start := time.Now()
	interactions, err := h.datasets.Load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("dataset load failed")
		rw.InternalError("dataset load failed")
		return
	}

	err = h.engine.Train(r.Context(), interactions)
	status := h.engine.Status()
	metrics.RecordTraining(status.ModelVersion, time.Since(start), err)
	if err != nil {
		h.logger.Error().Err(err).Msg("training failed")
		rw.InternalError("training failed")
		return
	}
	h.cache.Clear()

	rw.Success(status)
}

// switchRequest is the body of POST /api/v1/dataset/switch.
type switchRequest struct {
	Mode string `json:"mode" validate:"required,oneof=sample full"`
}

// SwitchDataset handles POST /api/v1/dataset/switch.
func (h *Handler) SwitchDataset(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req switchRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		rw.ValidationError("mode must be sample or full", err.Error())
		return
	}

	start := time.Now()
	status, err := h.datasets.Switch(r.Context(), dataset.Mode(req.Mode))
	metrics.RecordTraining(h.engine.Status().ModelVersion, time.Since(start), err)
	if err != nil {
		h.logger.Error().Err(err).Str("mode", req.Mode).Msg("dataset switch failed")
		rw.InternalError("dataset switch failed")
		return
	}

	rw.Success(status)
}

// DatasetStatus handles GET /api/v1/dataset/status.
func (h *Handler) DatasetStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.datasets.Status())
}

// EvaluateModel handles GET /api/v1/evaluate: offline precision@k and
// recall@k against items users purchased in the active dataset.
func (h *Handler) EvaluateModel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	k := 10
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			rw.BadRequest("k must be a positive integer")
			return
		}
		k = parsed
	}
	maxUsers := 100
	if raw := r.URL.Query().Get("users"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			rw.BadRequest("users must be a positive integer")
			return
		}
		maxUsers = parsed
	}

	interactions, err := h.datasets.Load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("dataset load failed")
		rw.InternalError("dataset load failed")
		return
	}

	relevant := evaluate.RelevantByUser(interactions, recommend.InteractionTransaction)
	result, err := evaluate.Evaluate(r.Context(), h.engine, relevant, k, maxUsers)
	if errors.Is(err, recommend.ErrUntrained) {
		rw.ModelNotTrained()
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("evaluation failed")
		rw.InternalError("evaluation failed")
		return
	}

	rw.Success(result)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"status":  "ok",
		"trained": h.engine.Status().Trained,
	})
}
