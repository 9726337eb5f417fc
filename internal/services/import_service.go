package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/pgn"
	"github.com/vytor/pgnbase/internal/repository"
)

const SourceText = "text"

// PGNSource downloads every game of a platform user as PGN text.
type PGNSource interface {
	FetchPGN(ctx context.Context, username string) (string, error)
}

// ImportService handles game import business logic
type ImportService interface {
	ImportRecords(ctx context.Context, games []models.GameRecord) (*models.ImportSummary, error)
	ImportText(ctx context.Context, text string, tags []string) (*models.ImportSummary, error)
	ImportFromPlatform(ctx context.Context, platform, username string) (*models.ImportSummary, error)
}

type importService struct {
	gameRepo        repository.GameRepository
	sources         map[string]PGNSource
	maxStorageBytes int64
}

// NewImportService creates a new ImportService. sources maps a platform name to its client.
func NewImportService(gameRepo repository.GameRepository, sources map[string]PGNSource, maxStorageBytes int64) ImportService {
	return &importService{gameRepo: gameRepo, sources: sources, maxStorageBytes: maxStorageBytes}
}

// ImportRecords stores already-structured games in one batch.
func (s *importService) ImportRecords(ctx context.Context, games []models.GameRecord) (*models.ImportSummary, error) {
	if len(games) == 0 {
		return nil, errors.NewValidationError("games", "no games to import")
	}
	games = append([]models.GameRecord(nil), games...)
	for i := range games {
		if err := validateGame(games[i]); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("games[%d].pgn", i), "is required")
		}
		completeFromPGN(&games[i])
		games[i].ID = 0
	}
	return s.store(ctx, SourceText, "", len(games), games)
}

// ImportText splits a multi-game blob and stores every game, adding tags to each.
func (s *importService) ImportText(ctx context.Context, text string, tags []string) (*models.ImportSummary, error) {
	return s.importText(ctx, SourceText, "", text, tags)
}

func (s *importService) importText(ctx context.Context, source, username, text string, tags []string) (*models.ImportSummary, error) {
	log := logger.FromContext(ctx).WithField("source", source)

	records := pgn.ParseRecords(text)
	if len(records) == 0 {
		return nil, errors.NewValidationError("pgn", "no games found")
	}
	tags = models.NormalizeTags(tags)
	for i := range records {
		records[i].Tags = models.NormalizeTags(append(records[i].Tags, tags...))
	}
	log.Info("parsed %d games", len(records))
	return s.store(ctx, source, username, len(records), records)
}

func (s *importService) store(ctx context.Context, source, username string, parsed int, games []models.GameRecord) (*models.ImportSummary, error) {
	log := logger.FromContext(ctx).WithField("source", source)

	if err := checkStorage(ctx, s.gameRepo, s.maxStorageBytes); err != nil {
		return nil, err
	}
	ids, err := s.gameRepo.InsertBatch(ctx, games)
	if err != nil {
		log.Error("failed to store %d games: %v", len(games), err)
		return nil, mapRepoError(err, 0)
	}
	log.Info("imported %d games", len(ids))
	return &models.ImportSummary{
		Source:     source,
		Username:   username,
		Parsed:     parsed,
		Imported:   len(ids),
		IDs:        ids,
		FinishedAt: time.Now().UTC(),
	}, nil
}

func (s *importService) ImportFromPlatform(ctx context.Context, platform, username string) (*models.ImportSummary, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	username = strings.TrimSpace(username)
	source, ok := s.sources[platform]
	if !ok {
		return nil, errors.NewValidationError("platform", fmt.Sprintf("unsupported platform %q", platform))
	}
	if username == "" {
		return nil, errors.NewValidationError("username", "is required")
	}

	log := logger.FromContext(ctx).WithFields(map[string]any{"platform": platform, "username": username})
	log.Info("fetching games")

	text, err := source.FetchPGN(ctx, username)
	if err != nil {
		log.Warn("fetch failed: %v", err)
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewUnavailableError(platform, err)
	}
	return s.importText(ctx, platform, username, text, nil)
}
