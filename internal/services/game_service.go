package services

import (
	"context"
	"strings"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/pgn"
	"github.com/vytor/pgnbase/internal/repository"
)

// GameService handles game-related business logic
type GameService interface {
	ListGames(ctx context.Context, filter models.GameFilter) ([]models.GameRecord, int, error)
	GetGame(ctx context.Context, id int64) (*models.GameRecord, error)
	GameIDs(ctx context.Context) ([]int64, error)
	CreateGame(ctx context.Context, game models.GameRecord) (*models.GameRecord, error)
	UpdateGame(ctx context.Context, game models.GameRecord) (*models.GameRecord, error)
	DeleteGame(ctx context.Context, id int64) error
	ClearGames(ctx context.Context) error
	ExportGame(ctx context.Context, id int64) (string, error)
	ExportGames(ctx context.Context, filter models.GameFilter) (string, error)
	Openings(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
	Storage(ctx context.Context) (models.StorageInfo, error)
}

type gameService struct {
	gameRepo        repository.GameRepository
	maxStorageBytes int64
}

// NewGameService creates a new GameService
func NewGameService(gameRepo repository.GameRepository, maxStorageBytes int64) GameService {
	return &gameService{gameRepo: gameRepo, maxStorageBytes: maxStorageBytes}
}

func mapRepoError(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError("game", id)
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewInternalError(err)
}

func (s *gameService) ListGames(ctx context.Context, filter models.GameFilter) ([]models.GameRecord, int, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing games: search=%q, limit=%d, offset=%d", filter.SearchText, filter.Limit, filter.Offset)

	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, 0, mapRepoError(err, 0)
	}

	total, err := s.gameRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count games: %v", err)
		return nil, 0, mapRepoError(err, 0)
	}
	return games, total, nil
}

func (s *gameService) GetGame(ctx context.Context, id int64) (*models.GameRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting game: id=%d", id)

	game, err := s.gameRepo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("failed to get game: %v", err)
		}
		return nil, mapRepoError(err, id)
	}
	return game, nil
}

func (s *gameService) GameIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.gameRepo.IDs(ctx)
	if err != nil {
		return nil, mapRepoError(err, 0)
	}
	return ids, nil
}

// completeFromPGN fills fields the caller left empty from the game's own headers.
func completeFromPGN(g *models.GameRecord) {
	units := pgn.Split(g.PGN)
	if len(units) == 0 {
		return
	}
	parsed := pgn.ToRecord(units[0])
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&g.Event, parsed.Event)
	fill(&g.Site, parsed.Site)
	fill(&g.Date, parsed.Date)
	fill(&g.White, parsed.White)
	fill(&g.Black, parsed.Black)
	fill(&g.Result, parsed.Result)
	fill(&g.ECO, parsed.ECO)
	fill(&g.Opening, parsed.Opening)
	if g.WhiteElo == nil {
		g.WhiteElo = parsed.WhiteElo
	}
	if g.BlackElo == nil {
		g.BlackElo = parsed.BlackElo
	}
	if g.MoveCount == 0 {
		g.MoveCount = parsed.MoveCount
	}
}

func validateGame(g models.GameRecord) error {
	if strings.TrimSpace(g.PGN) == "" {
		return errors.NewValidationError("pgn", "is required")
	}
	return nil
}

// checkStorage rejects writes once the store has reached its limit.
func checkStorage(ctx context.Context, repo repository.GameRepository, max int64) error {
	if max <= 0 {
		return nil
	}
	used, err := repo.UsedBytes(ctx)
	if err != nil {
		return mapRepoError(err, 0)
	}
	if used >= max {
		logger.FromContext(ctx).Warn("storage limit reached: %d/%d bytes", used, max)
		return errors.NewStorageFullError(used, max)
	}
	return nil
}

func (s *gameService) CreateGame(ctx context.Context, game models.GameRecord) (*models.GameRecord, error) {
	log := logger.FromContext(ctx)
	if err := validateGame(game); err != nil {
		return nil, err
	}
	if err := checkStorage(ctx, s.gameRepo, s.maxStorageBytes); err != nil {
		return nil, err
	}

	completeFromPGN(&game)
	game.ApplyDefaults()
	id, err := s.gameRepo.Insert(ctx, game)
	if err != nil {
		log.Error("failed to create game: %v", err)
		return nil, mapRepoError(err, 0)
	}
	log.Info("created game %d: %s vs %s", id, game.White, game.Black)
	return s.GetGame(ctx, id)
}

func (s *gameService) UpdateGame(ctx context.Context, game models.GameRecord) (*models.GameRecord, error) {
	log := logger.FromContext(ctx)
	if game.ID <= 0 {
		return nil, errors.NewValidationError("id", "must be positive")
	}
	if err := validateGame(game); err != nil {
		return nil, err
	}
	if game.MoveCount == 0 {
		units := pgn.Split(game.PGN)
		if len(units) > 0 {
			game.MoveCount = pgn.CountMoveNumbers(units[0].Movetext())
		}
	}

	if err := s.gameRepo.Update(ctx, game); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("failed to update game %d: %v", game.ID, err)
		}
		return nil, mapRepoError(err, game.ID)
	}
	return s.GetGame(ctx, game.ID)
}

func (s *gameService) DeleteGame(ctx context.Context, id int64) error {
	if err := s.gameRepo.Delete(ctx, id); err != nil {
		return mapRepoError(err, id)
	}
	logger.FromContext(ctx).Info("deleted game %d", id)
	return nil
}

func (s *gameService) ClearGames(ctx context.Context) error {
	if err := s.gameRepo.Clear(ctx); err != nil {
		return mapRepoError(err, 0)
	}
	return nil
}

func (s *gameService) ExportGame(ctx context.Context, id int64) (string, error) {
	game, err := s.GetGame(ctx, id)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(game.PGN) + "\n", nil
}

// ExportGames joins every matching game, oldest first, separated by a blank line.
func (s *gameService) ExportGames(ctx context.Context, filter models.GameFilter) (string, error) {
	filter.Limit, filter.Offset = 0, 0
	filter.OrderDir = "ASC"
	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		return "", mapRepoError(err, 0)
	}
	parts := make([]string, 0, len(games))
	for _, g := range games {
		if text := strings.TrimSpace(g.PGN); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

func (s *gameService) Openings(ctx context.Context) ([]string, error) {
	openings, err := s.gameRepo.Openings(ctx)
	if err != nil {
		return nil, mapRepoError(err, 0)
	}
	return models.UniqueSorted(openings), nil
}

func (s *gameService) Tags(ctx context.Context) ([]string, error) {
	tags, err := s.gameRepo.Tags(ctx)
	if err != nil {
		return nil, mapRepoError(err, 0)
	}
	return models.UniqueSorted(tags), nil
}

func (s *gameService) Storage(ctx context.Context) (models.StorageInfo, error) {
	used, err := s.gameRepo.UsedBytes(ctx)
	if err != nil {
		return models.StorageInfo{}, mapRepoError(err, 0)
	}
	return models.NewStorageInfo(used, s.maxStorageBytes), nil
}
