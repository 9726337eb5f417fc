package services

import (
	"context"
	"strings"

	"github.com/vytor/pgnbase/internal/enrich"
	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/game"
	"github.com/vytor/pgnbase/internal/jobs"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/opening"
)

// LookupRequest asks for the opening at one position. Either Moves or PGN is given; with PGN
// the game is replayed and its canonical SANs are used. A nil UpToIndex means the whole game.
type LookupRequest struct {
	SessionID string              `json:"-"`
	Moves     []string            `json:"moves"`
	PGN       string              `json:"pgn"`
	UpToIndex *int                `json:"upToIndex"`
	Header    *opening.HeaderHint `json:"header"`
}

type LookupResponse struct {
	Opening   *opening.LookupResult `json:"opening"`
	Editable  bool                  `json:"editable"`
	Cached    bool                  `json:"cached"`
	Moves     []string              `json:"moves"`
	UpToIndex int                   `json:"upToIndex"`
}

type OpeningStatus struct {
	opening.Status
	Sessions       int            `json:"sessions"`
	LastEnrichment *enrich.Report `json:"lastEnrichment,omitempty"`
}

// OpeningService handles opening classification and naming
type OpeningService interface {
	Lookup(ctx context.Context, req LookupRequest) (*LookupResponse, error)
	SaveName(ctx context.Context, moves []string, name string) (*opening.LookupResult, error)
	Status(ctx context.Context) OpeningStatus
	Reload(ctx context.Context) (OpeningStatus, error)
	QueueEnrichment(ctx context.Context) error
}

type openingService struct {
	resolver *opening.Resolver
	sessions *opening.Sessions
	enricher *enrich.Enricher
	jobQueue jobs.JobQueue
}

// NewOpeningService creates a new OpeningService. enricher may be nil.
func NewOpeningService(resolver *opening.Resolver, sessions *opening.Sessions, enricher *enrich.Enricher, jobQueue jobs.JobQueue) OpeningService {
	return &openingService{resolver: resolver, sessions: sessions, enricher: enricher, jobQueue: jobQueue}
}

func (s *openingService) Lookup(ctx context.Context, req LookupRequest) (*LookupResponse, error) {
	moves, header, err := lookupInput(req)
	if err != nil {
		return nil, err
	}

	upTo := len(moves) - 1
	if req.UpToIndex != nil {
		upTo = *req.UpToIndex
		if upTo < -1 {
			return nil, errors.NewValidationError("upToIndex", "must be -1 or greater")
		}
		if upTo > len(moves)-1 {
			upTo = len(moves) - 1
		}
	}

	resp := &LookupResponse{Moves: moves[:upTo+1], UpToIndex: upTo}
	if req.SessionID != "" {
		resp.Opening, resp.Cached = s.sessions.Cursor(req.SessionID).Lookup(moves, upTo, header)
	} else {
		resp.Opening = s.resolver.Lookup(moves, upTo, header)
	}
	if resp.Opening != nil {
		resp.Editable = resp.Opening.Editable()
	}
	logger.FromContext(ctx).Debug("opening lookup: plies=%d cached=%t found=%t", upTo+1, resp.Cached, resp.Opening != nil)
	return resp, nil
}

func lookupInput(req LookupRequest) ([]string, *opening.HeaderHint, error) {
	if strings.TrimSpace(req.PGN) == "" {
		if req.Moves == nil {
			return []string{}, req.Header, nil
		}
		return req.Moves, req.Header, nil
	}

	v := game.NewViewer()
	if err := v.Load(req.PGN); err != nil {
		return nil, nil, err
	}
	header := req.Header
	if header == nil {
		header = v.HeaderHint()
	}
	return v.SANs(), header, nil
}

func (s *openingService) SaveName(ctx context.Context, moves []string, name string) (*opening.LookupResult, error) {
	name = strings.TrimSpace(name)
	if len(moves) == 0 {
		return nil, errors.NewValidationError("moves", "at least one move is required")
	}
	if name == "" {
		return nil, errors.NewValidationError("name", "is required")
	}

	log := logger.FromContext(ctx)
	res, err := s.resolver.SaveName(ctx, moves, name)
	if err != nil {
		log.Warn("failed to save opening name: %v", err)
		return nil, err
	}
	log.Info("saved opening name %q for %s", name, strings.Join(moves, " "))
	return res, nil
}

func (s *openingService) Status(ctx context.Context) OpeningStatus {
	st := OpeningStatus{Status: s.resolver.Status(), Sessions: s.sessions.Len()}
	if s.enricher != nil {
		st.LastEnrichment = s.enricher.Last()
	}
	return st
}

func (s *openingService) Reload(ctx context.Context) (OpeningStatus, error) {
	if err := s.resolver.Reload(ctx); err != nil {
		logger.FromContext(ctx).Warn("opening tree reload failed: %v", err)
		if _, ok := errors.As(err); !ok {
			err = errors.NewUnavailableError("opening tree", err)
		}
		return s.Status(ctx), err
	}
	return s.Status(ctx), nil
}

func (s *openingService) QueueEnrichment(ctx context.Context) error {
	if err := s.jobQueue.EnqueueEnrichment(); err != nil {
		logger.FromContext(ctx).Warn("failed to queue enrichment: %v", err)
		return err
	}
	return nil
}
