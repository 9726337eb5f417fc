package repository

import (
	"context"
	"errors"

	"github.com/vytor/pgnbase/internal/models"
)

// ErrNotFound is returned by every backend when a game id does not exist.
var ErrNotFound = errors.New("game not found")

// GameRepository handles game data access. The local SQLite store and the remote HTTP store
// both implement it so services never know which backend is active.
type GameRepository interface {
	Get(ctx context.Context, id int64) (*models.GameRecord, error)
	List(ctx context.Context, filter models.GameFilter) ([]models.GameRecord, error)
	Count(ctx context.Context, filter models.GameFilter) (int, error)
	IDs(ctx context.Context) ([]int64, error)
	Insert(ctx context.Context, game models.GameRecord) (int64, error)
	InsertBatch(ctx context.Context, games []models.GameRecord) ([]int64, error)
	Update(ctx context.Context, game models.GameRecord) error
	UpdateOpening(ctx context.Context, id int64, ecoCode, openingName string) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	Openings(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
	UsedBytes(ctx context.Context) (int64, error)
}
