package worker

import (
	"context"

	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
)

// OpeningEnricher classifies stored games in bulk.
type OpeningEnricher interface {
	Run(ctx context.Context) (models.EnrichStats, error)
}

// PlatformImporter pulls a user's games from a platform into storage.
type PlatformImporter interface {
	ImportFromPlatform(ctx context.Context, platform, username string) (*models.ImportSummary, error)
}

type EnrichOpeningsJob struct {
	Enricher OpeningEnricher
}

func (j *EnrichOpeningsJob) Name() string { return "enrich_openings" }

func (j *EnrichOpeningsJob) Run(ctx context.Context) error {
	stats, err := j.Enricher.Run(ctx)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("enrichment finished: scanned=%d updated=%d unchanged=%d missing=%d failed=%d",
		stats.Scanned, stats.Updated, stats.Unchanged, stats.Missing, stats.Failed)
	return nil
}

// ImportGamesJob fetches a platform export and stores it. AfterImport runs only when at
// least one game was stored.
type ImportGamesJob struct {
	Importer    PlatformImporter
	Platform    string
	Username    string
	AfterImport func(ctx context.Context, summary *models.ImportSummary)
}

func (j *ImportGamesJob) Name() string { return "import_games" }

func (j *ImportGamesJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"platform": j.Platform,
		"username": j.Username,
	})
	log.Info("starting background import")

	summary, err := j.Importer.ImportFromPlatform(ctx, j.Platform, j.Username)
	if err != nil {
		log.Error("import failed: %v", err)
		return err
	}
	log.Info("imported %d of %d parsed games", summary.Imported, summary.Parsed)

	if summary.Imported > 0 && j.AfterImport != nil {
		j.AfterImport(ctx, summary)
	}
	return nil
}
