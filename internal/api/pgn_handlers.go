package api

import (
	"net/http"

	"github.com/vytor/pgnbase/internal/pgn"
	"github.com/vytor/pgnbase/internal/services"
)

type pgnRequest struct {
	PGN string `json:"pgn"`
}

// readPGN accepts {"pgn": "..."} or a raw text body.
func readPGN(w http.ResponseWriter, r *http.Request) (string, error) {
	if !isJSON(r) {
		return readText(w, r, maxImportBody)
	}
	var req pgnRequest
	if err := decodeJSON(w, r, maxImportBody, &req); err != nil {
		return "", err
	}
	return req.PGN, nil
}

func (s *Server) handleParsePGN(w http.ResponseWriter, r *http.Request) {
	text, err := readPGN(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	view, err := s.PGNService.Parse(r.Context(), text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRenderPGN(w http.ResponseWriter, r *http.Request) {
	var doc pgn.Document
	if err := decodeJSON(w, r, maxJSONBody, &doc); err != nil {
		handleError(w, r, err)
		return
	}
	view, err := s.PGNService.Render(r.Context(), doc)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSanitizePGN(w http.ResponseWriter, r *http.Request) {
	text, err := readPGN(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.PGNService.Sanitize(r.Context(), text))
}

func (s *Server) handleSplitPGN(w http.ResponseWriter, r *http.Request) {
	text, err := readPGN(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	games := s.PGNService.Split(r.Context(), text)
	writeJSON(w, http.StatusOK, map[string]any{"games": games, "count": len(games)})
}

func (s *Server) handlePlayMove(w http.ResponseWriter, r *http.Request) {
	var req services.PlayRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		handleError(w, r, err)
		return
	}
	res, err := s.PGNService.Play(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
