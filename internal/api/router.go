package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/handlers"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/response"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)

	// WebSocket endpoint (no request timeout)
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		if s.analysis != nil {
			deckHandler := handlers.NewDeckHandler(s.analysis)
			analysisHandler := handlers.NewAnalysisHandler(s.analysis)
			comboHandler := handlers.NewComboHandler(s.analysis)

			r.Route("/decks", func(r chi.Router) {
				r.Get("/", deckHandler.ListDecks)
				r.Post("/", deckHandler.ImportDeck)
				r.Route("/{deckID}", func(r chi.Router) {
					r.Get("/", deckHandler.GetDeck)
					r.Put("/", deckHandler.UpdateDeck)
					r.Delete("/", deckHandler.DeleteDeck)
					r.Put("/cards/{cardID}/tags", deckHandler.UpdateCardTags)
					r.Post("/tags", deckHandler.TagByName)

					r.Get("/distribution", analysisHandler.Distribution)
					r.Get("/distribution/chart", analysisHandler.DistributionChart)
					r.Get("/sample-hand", analysisHandler.SampleHand)
					r.Post("/simulate", analysisHandler.Simulate)

					r.Get("/combos", comboHandler.ListCombos)
					r.Post("/combos", comboHandler.SaveCombo)
					r.Delete("/combos/{comboID}", comboHandler.DeleteCombo)
				})
			})

			r.Route("/analysis", func(r chi.Router) {
				r.Post("/simulate", analysisHandler.SimulateCards)
				r.Post("/distribution", analysisHandler.DistributionForCards)
			})
		}

		if s.jobs != nil {
			simulationHandler := handlers.NewSimulationHandler(s.jobs)
			r.Route("/simulations", func(r chi.Router) {
				r.Get("/", simulationHandler.ListJobs)
				r.Post("/", simulationHandler.Submit)
				r.Get("/{jobID}", simulationHandler.GetJob)
				r.Delete("/{jobID}", simulationHandler.CancelJob)
			})
		}

		if s.catalog != nil {
			cardHandler := handlers.NewCardHandler(s.catalog)
			r.Route("/cards", func(r chi.Router) {
				r.Get("/search", cardHandler.SearchCards)
				r.Post("/metadata", cardHandler.Metadata)
			})
		}

		systemHandler := handlers.NewSystemHandler(s.metrics, s.db, s.wsHub.ClientCount)
		r.Route("/system", func(r chi.Router) {
			r.Get("/metrics", systemHandler.GetMetrics)
			if s.db != nil {
				r.Post("/backup", systemHandler.Backup)
				r.Get("/backups", systemHandler.ListBackups)
			}
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "solemnstats-api",
		"version": version.GetVersion(),
	})
}
