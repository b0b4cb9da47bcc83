// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the router's cross-cutting settings.
type RouterConfig struct {
	// APIKey, when non-empty, locks the /api routes behind an
	// X-API-Key header check.
	APIKey string

	// RateLimit is the per-IP request budget per minute; 0 disables
	// rate limiting.
	RateLimit int

	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string
}

// Router wires the API handler into a Chi route tree.
type Router struct {
	handler *Handler
	config  RouterConfig
}

// NewRouter creates the router.
func NewRouter(handler *Handler, cfg RouterConfig) *Router {
	return &Router{handler: handler, config: cfg}
}

// Setup builds the HTTP handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	origins := router.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if router.config.RateLimit > 0 {
		r.Use(httprate.LimitByIP(router.config.RateLimit, time.Minute))
	}

	// Health and metrics stay outside the API key check so probes and
	// scrapers need no credentials.
	r.Get("/api/v1/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(PrometheusMetrics)
		r.Use(APIKeyAuth(router.config.APIKey))

		r.Route("/recommendations/{userID}", func(r chi.Router) {
			r.Get("/", router.handler.UserRecommendations)
			r.Post("/refresh", router.handler.RefreshRecommendations)
			r.Get("/status", router.handler.RecommendationStatus)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", router.handler.CreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", router.handler.SessionStatus)
				r.Delete("/", router.handler.CloseSession)
				r.Post("/events", router.handler.RecordSessionEvent)
				r.Get("/recommendations", router.handler.SessionRecommendations)
			})
		})

		r.Route("/cache", func(r chi.Router) {
			r.Post("/prewarm", router.handler.PrewarmCache)
			r.Get("/stats", router.handler.CacheStats)
		})

		r.Route("/engine", func(r chi.Router) {
			r.Get("/status", router.handler.EngineStatus)
			r.Post("/train", router.handler.TrainEngine)
		})

		r.Route("/dataset", func(r chi.Router) {
			r.Post("/switch", router.handler.SwitchDataset)
			r.Get("/status", router.handler.DatasetStatus)
		})

		r.Get("/evaluate", router.handler.EvaluateModel)
	})

	return r
}
