package server

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/kwradar/kwradar/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	health := handlers.NewHealthManager(s.deps.Version)
	if s.deps.Store != nil {
		health.RegisterChecker("store", handlers.HealthCheckerFunc(func(ctx context.Context) error {
			return s.deps.Store.DB.PingContext(ctx)
		}))
	}

	s.router.Get("/health", health.HealthHandler)
	s.router.Get("/health/live", health.LivenessHandler)
	s.router.Get("/health/ready", health.ReadinessHandler)

	s.router.Get("/version", handlers.VersionHandler)

	gateHandler := &handlers.GateHandler{Controller: s.deps.Gate, Store: s.deps.Store}
	keywordHandler := &handlers.KeywordHandler{Store: s.deps.Store}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/gate", gateHandler.StatsHandler)
		r.Post("/gate/events", gateHandler.ThrottleEventHandler)
		r.Post("/gate/reset", gateHandler.ResetHandler)
		r.Get("/keywords", keywordHandler.ScoresHandler)
		r.Get("/seeds/{seed}/suggestions", keywordHandler.SuggestionsHandler)
	})
}
