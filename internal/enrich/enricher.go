// Package enrich classifies the openings of stored games in bulk.
package enrich

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/opening"
	"github.com/vytor/pgnbase/internal/pgn"
	"github.com/vytor/pgnbase/internal/repository"
)

const DefaultChunkSize = 50

// Classifier resolves the opening of a whole game.
type Classifier interface {
	LookupForGame(moves []string, header *opening.HeaderHint) *opening.LookupResult
}

// Report is the outcome of the most recent run.
type Report struct {
	Stats      models.EnrichStats `json:"stats"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
	Error      string             `json:"error,omitempty"`
}

type Enricher struct {
	repo       repository.GameRepository
	classifier Classifier
	chunkSize  int

	running sync.Mutex
	mu      sync.RWMutex
	last    *Report
}

func New(repo repository.GameRepository, classifier Classifier, chunkSize int) *Enricher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Enricher{repo: repo, classifier: classifier, chunkSize: chunkSize}
}

// Run walks every stored game in chunks and writes back better opening names. Records deleted
// while the run is in progress are skipped. Only one run executes at a time.
func (e *Enricher) Run(ctx context.Context) (models.EnrichStats, error) {
	log := logger.FromContext(ctx).WithPrefix("enrich")
	if !e.running.TryLock() {
		return models.EnrichStats{}, errors.NewBadRequestError("enrichment already running")
	}
	defer e.running.Unlock()

	report := &Report{StartedAt: time.Now().UTC()}
	stats, err := e.run(ctx, log)
	report.Stats = stats
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
	}

	e.mu.Lock()
	e.last = report
	e.mu.Unlock()
	return stats, err
}

func (e *Enricher) run(ctx context.Context, log *logger.Logger) (models.EnrichStats, error) {
	var stats models.EnrichStats

	ids, err := e.repo.IDs(ctx)
	if err != nil {
		log.Error("failed to list game ids: %v", err)
		return stats, errors.NewInternalError(err)
	}
	log.Info("starting enrichment of %d games in chunks of %d", len(ids), e.chunkSize)

	for start := 0; start < len(ids); start += e.chunkSize {
		if err := ctx.Err(); err != nil {
			log.Warn("enrichment cancelled after %d games", stats.Scanned)
			return stats, err
		}
		end := min(start+e.chunkSize, len(ids))
		for _, id := range ids[start:end] {
			e.enrichOne(ctx, log, id, &stats)
		}
		log.Debug("enrichment progress %d/%d", end, len(ids))
		runtime.Gosched()
	}
	return stats, nil
}

func (e *Enricher) enrichOne(ctx context.Context, log *logger.Logger, id int64, stats *models.EnrichStats) {
	stats.Scanned++

	g, err := e.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		stats.Missing++
		return
	}
	if err != nil {
		log.Warn("failed to load game %d: %v", id, err)
		stats.Failed++
		return
	}

	update, ok := Classify(e.classifier, *g)
	if !ok {
		stats.Unchanged++
		return
	}
	if err := e.repo.UpdateOpening(ctx, id, update.ECO, update.Name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			stats.Missing++
			return
		}
		log.Warn("failed to update game %d: %v", id, err)
		stats.Failed++
		return
	}
	stats.Updated++
}

// Classify resolves a record's opening and reports whether the stored name or ECO should be
// replaced. Results that only echo the record's own header never count as an improvement.
func Classify(c Classifier, g models.GameRecord) (*opening.LookupResult, bool) {
	header := &opening.HeaderHint{Opening: g.Opening, ECO: g.ECO}
	res := c.LookupForGame(pgn.ExtractMoves(g.PGN), header)
	if res == nil || res.Source == opening.SourceHeader {
		return res, false
	}
	return res, res.Name != g.Opening || res.ECO != g.ECO
}

// Last returns the report of the previous run, or nil.
func (e *Enricher) Last() *Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return nil
	}
	r := *e.last
	return &r
}
