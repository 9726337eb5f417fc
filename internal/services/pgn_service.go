package services

import (
	"context"
	"strings"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/game"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/opening"
	"github.com/vytor/pgnbase/internal/pgn"
)

// GameView is a replayed game as returned to clients.
type GameView struct {
	game.State
	HeaderOpening *opening.HeaderHint `json:"headerOpening,omitempty"`
	PGN           string              `json:"pgn"`
}

// PlayRequest applies one move to a game. A nil At plays after the last move.
type PlayRequest struct {
	PGN       string `json:"pgn"`
	At        *int   `json:"at"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

type PlayResult struct {
	Move game.Move `json:"move"`
	GameView
}

// PGNService exposes the sanitizer, splitter and viewer without storing anything
type PGNService interface {
	Parse(ctx context.Context, text string) (*GameView, error)
	Render(ctx context.Context, doc pgn.Document) (*GameView, error)
	Sanitize(ctx context.Context, text string) pgn.Sanitized
	Split(ctx context.Context, text string) []models.GameRecord
	Play(ctx context.Context, req PlayRequest) (*PlayResult, error)
}

type pgnService struct{}

func NewPGNService() PGNService {
	return &pgnService{}
}

func view(v *game.Viewer) *GameView {
	return &GameView{State: v.State(), HeaderOpening: v.HeaderHint(), PGN: v.PGN()}
}

func (s *pgnService) load(ctx context.Context, text string) (*game.Viewer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidationError("pgn", "is required")
	}
	v := game.NewViewer()
	if err := v.Load(text); err != nil {
		logger.FromContext(ctx).Debug("rejected game: %v", err)
		return nil, err
	}
	return v, nil
}

func (s *pgnService) Parse(ctx context.Context, text string) (*GameView, error) {
	v, err := s.load(ctx, text)
	if err != nil {
		return nil, err
	}
	return view(v), nil
}

// Render writes doc and replays the result so only legal, canonical games come back.
func (s *pgnService) Render(ctx context.Context, doc pgn.Document) (*GameView, error) {
	v, err := s.load(ctx, pgn.Write(doc))
	if err != nil {
		return nil, err
	}
	return view(v), nil
}

func (s *pgnService) Sanitize(ctx context.Context, text string) pgn.Sanitized {
	return pgn.Sanitize(text)
}

func (s *pgnService) Split(ctx context.Context, text string) []models.GameRecord {
	return pgn.ParseRecords(text)
}

func (s *pgnService) Play(ctx context.Context, req PlayRequest) (*PlayResult, error) {
	v, err := s.load(ctx, req.PGN)
	if err != nil {
		return nil, err
	}
	at := len(v.Moves()) - 1
	if req.At != nil {
		at = *req.At
	}
	if !v.GoTo(at) {
		return nil, errors.NewValidationError("at", "move index out of range")
	}

	mv, err := v.Play(req.From, req.To, req.Promotion)
	if err != nil {
		return nil, err
	}
	return &PlayResult{Move: mv, GameView: *view(v)}, nil
}
