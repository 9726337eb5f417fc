package jobs

import (
	"context"

	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	enrichPool *worker.Pool
	importPool *worker.Pool
	enricher   worker.OpeningEnricher
	importer   worker.PlatformImporter
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(
	enrichPool *worker.Pool,
	importPool *worker.Pool,
	enricher worker.OpeningEnricher,
	importer worker.PlatformImporter,
) *WorkerQueue {
	return &WorkerQueue{
		enrichPool: enrichPool,
		importPool: importPool,
		enricher:   enricher,
		importer:   importer,
	}
}

func (q *WorkerQueue) EnqueueEnrichment() error {
	return q.enrichPool.Submit(&worker.EnrichOpeningsJob{Enricher: q.enricher})
}

// EnqueueImport queues a platform import; a successful import queues enrichment.
func (q *WorkerQueue) EnqueueImport(platform, username string) error {
	return q.importPool.Submit(&worker.ImportGamesJob{
		Importer: q.importer,
		Platform: platform,
		Username: username,
		AfterImport: func(ctx context.Context, summary *models.ImportSummary) {
			if err := q.EnqueueEnrichment(); err != nil {
				logger.FromContext(ctx).Warn("could not queue enrichment after import: %v", err)
			}
		},
	})
}
