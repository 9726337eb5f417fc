package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)
		if s.RequestTimeout > 0 {
			r.Use(timeoutMiddleware(s.RequestTimeout))
		}

		r.Route("/games", func(r chi.Router) {
			r.Get("/", s.handleListGames)
			r.Post("/", s.handleCreateGame)
			r.Delete("/", s.handleClearGames)
			r.Get("/ids", s.handleGameIDs)
			r.Get("/export", s.handleExportGames)
			r.Get("/openings", s.handleOpenings)
			r.Get("/tags", s.handleTags)
			r.Post("/import", s.handleImportRecords)
			r.Post("/import/pgn", s.handleImportPGN)
			r.Post("/import/{platform}/{username}", s.handleImportPlatform)

			r.Get("/{id}", s.handleGetGame)
			r.Put("/{id}", s.handleUpdateGame)
			r.Delete("/{id}", s.handleDeleteGame)
			r.Get("/{id}/pgn", s.handleExportGame)
		})
		r.Get("/storage", s.handleStorage)

		r.Route("/pgn", func(r chi.Router) {
			r.Post("/parse", s.handleParsePGN)
			r.Post("/render", s.handleRenderPGN)
			r.Post("/sanitize", s.handleSanitizePGN)
			r.Post("/split", s.handleSplitPGN)
			r.Post("/play", s.handlePlayMove)
		})

		r.Route("/openings", func(r chi.Router) {
			r.Post("/lookup", s.handleLookupOpening)
			r.Put("/name", s.handleSaveOpeningName)
			r.Get("/status", s.handleOpeningStatus)
			r.Post("/reload", s.handleReloadOpenings)
			r.Post("/enrich", s.handleEnrichOpenings)
		})
	})
	return r
}
