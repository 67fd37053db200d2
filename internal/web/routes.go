package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/memory-mirror/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	statusHandler := handlers.NewStatusHandler(deps.Orchestrator, deps.Matcher, deps.Gallery, deps.Audio)
	personsHandler := handlers.NewPersonsHandler(deps.Gallery, deps.Orchestrator)
	cacheHandler := handlers.NewCacheHandler(deps.Orchestrator)
	announceHandler := handlers.NewAnnounceHandler(deps.Audio, deps.Gallery)
	eventsHandler := handlers.NewEventsHandler(deps.Orchestrator.Events())
	facesHandler := handlers.NewFacesHandler(deps.Index)
	historyHandler := handlers.NewHistoryHandler(deps.History)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", statusHandler.Get)

		r.Get("/persons", personsHandler.List)
		r.Get("/persons/{id}", personsHandler.Get)
		r.Put("/persons/{id}", personsHandler.Update)
		r.Post("/persons/refresh", personsHandler.Refresh)

		r.Get("/cache/stats", cacheHandler.Stats)
		r.Delete("/cache", cacheHandler.Invalidate)

		r.Post("/announce", announceHandler.Announce)
		r.Post("/announce/stop", announceHandler.Stop)

		r.Get("/events", eventsHandler.Stream)

		r.Post("/faces/neighbors", facesHandler.Neighbors)

		r.Get("/history", historyHandler.List)
		r.Get("/history/stats", historyHandler.Stats)
		r.Post("/history/similar", historyHandler.Similar)
	})
}
