package api

import (
	"fmt"
	"net/http"

	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
)

type listGamesResponse struct {
	Games []models.GameRecord `json:"games"`
	Total int                 `json:"total"`
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).WithFields(map[string]any{
		"search": filter.SearchText,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}).Debug("listing games with filters")

	games, total, err := s.GameService.ListGames(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listGamesResponse{Games: games, Total: total})
}

func (s *Server) handleGameIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.GameService.GameIDs(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"ids": ids})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	game, err := s.GameService.GetGame(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var game models.GameRecord
	if err := decodeJSON(w, r, maxJSONBody, &game); err != nil {
		handleError(w, r, err)
		return
	}
	created, err := s.GameService.CreateGame(r.Context(), game)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateGame(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var game models.GameRecord
	if err := decodeJSON(w, r, maxJSONBody, &game); err != nil {
		handleError(w, r, err)
		return
	}
	game.ID = id

	updated, err := s.GameService.UpdateGame(r.Context(), game)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.GameService.DeleteGame(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearGames(w http.ResponseWriter, r *http.Request) {
	if err := s.GameService.ClearGames(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("cleared all games")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportGame(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	text, err := s.GameService.ExportGame(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeText(w, "application/x-chess-pgn", fmt.Sprintf("game-%d.pgn", id), text)
}

func (s *Server) handleExportGames(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	text, err := s.GameService.ExportGames(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeText(w, "application/x-chess-pgn", "games.pgn", text)
}

func (s *Server) handleOpenings(w http.ResponseWriter, r *http.Request) {
	openings, err := s.GameService.Openings(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"openings": openings})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.GameService.Tags(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

func (s *Server) handleStorage(w http.ResponseWriter, r *http.Request) {
	info, err := s.GameService.Storage(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
