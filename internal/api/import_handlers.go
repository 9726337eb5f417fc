package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
)

type importRecordsRequest struct {
	Games []models.GameRecord `json:"games"`
}

type importPGNRequest struct {
	PGN  string   `json:"pgn"`
	Tags []string `json:"tags"`
}

type importQueuedResponse struct {
	Status   string `json:"status"`
	Platform string `json:"platform"`
	Username string `json:"username"`
}

func (s *Server) handleImportRecords(w http.ResponseWriter, r *http.Request) {
	var req importRecordsRequest
	if err := decodeJSON(w, r, maxImportBody, &req); err != nil {
		handleError(w, r, err)
		return
	}
	summary, err := s.ImportService.ImportRecords(r.Context(), req.Games)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

// handleImportPGN accepts either a JSON body or raw PGN text with tags in the query string.
func (s *Server) handleImportPGN(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req importPGNRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, maxImportBody, &req); err != nil {
			handleError(w, r, err)
			return
		}
	} else {
		text, err := readText(w, r, maxImportBody)
		if err != nil {
			handleError(w, r, err)
			return
		}
		req = importPGNRequest{PGN: text, Tags: r.URL.Query()["tag"]}
	}

	summary, err := s.ImportService.ImportText(r.Context(), req.PGN, req.Tags)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if s.JobQueue != nil {
		if err := s.JobQueue.EnqueueEnrichment(); err != nil {
			log.Warn("imported %d games but could not queue enrichment: %v", summary.Imported, err)
		}
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleImportPlatform(w http.ResponseWriter, r *http.Request) {
	platform := strings.ToLower(chi.URLParam(r, "platform"))
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	log := logger.FromContext(r.Context()).WithFields(map[string]any{"platform": platform, "username": username})

	if platform != models.PlatformLichess && platform != models.PlatformChessCom {
		handleError(w, r, errors.NewValidationError("platform", "must be lichess or chesscom"))
		return
	}
	if username == "" {
		handleError(w, r, errors.NewValidationError("username", "is required"))
		return
	}
	if err := s.JobQueue.EnqueueImport(platform, username); err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("import job queued")
	writeJSON(w, http.StatusAccepted, importQueuedResponse{Status: "queued", Platform: platform, Username: username})
}
