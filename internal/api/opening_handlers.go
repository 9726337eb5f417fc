package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/vytor/pgnbase/internal/services"
)

const sessionHeader = "X-Session-ID"

type saveNameRequest struct {
	Moves []string `json:"moves"`
	Name  string   `json:"name"`
}

// sessionID returns the caller's session, minting one when absent. The id is echoed so the
// client can reuse its lookup cursor on the next request.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(sessionHeader))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(sessionHeader, id)
	return id
}

func (s *Server) handleLookupOpening(w http.ResponseWriter, r *http.Request) {
	var req services.LookupRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		handleError(w, r, err)
		return
	}
	req.SessionID = sessionID(w, r)

	resp, err := s.OpeningService.Lookup(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveOpeningName(w http.ResponseWriter, r *http.Request) {
	var req saveNameRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		handleError(w, r, err)
		return
	}
	res, err := s.OpeningService.SaveName(r.Context(), req.Moves, req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleOpeningStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.OpeningService.Status(r.Context()))
}

func (s *Server) handleReloadOpenings(w http.ResponseWriter, r *http.Request) {
	st, err := s.OpeningService.Reload(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEnrichOpenings(w http.ResponseWriter, r *http.Request) {
	if err := s.OpeningService.QueueEnrichment(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
