package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var gameColumns = []string{
	"id", "event", "site", "date", "white", "black", "result", "eco", "opening",
	"white_elo", "black_elo", "pgn", "tags", "notes", "move_count", "created_at", "updated_at",
}

const insertGameSQL = `
INSERT INTO games (
    event, site, date, white, black, result, eco, opening,
    white_elo, black_elo, pgn, tags, notes, move_count, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type gameRepository struct {
	db *sql.DB
}

// NewGameRepository creates a new GameRepository implementation
func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (models.GameRecord, error) {
	var (
		g                  models.GameRecord
		whiteElo, blackElo sql.NullInt64
		tags               string
	)
	err := row.Scan(&g.ID, &g.Event, &g.Site, &g.Date, &g.White, &g.Black, &g.Result, &g.ECO, &g.Opening,
		&whiteElo, &blackElo, &g.PGN, &tags, &g.Notes, &g.MoveCount, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return g, err
	}
	g.WhiteElo = intPtr(whiteElo)
	g.BlackElo = intPtr(blackElo)
	g.Tags, err = decodeTags(tags)
	return g, err
}

func (r *gameRepository) Get(ctx context.Context, id int64) (*models.GameRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("getting game: id=%d", id)

	query, args, err := sqlBuilder.Select(gameColumns...).From("games").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	g, err := scanGame(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("game not found: id=%d", id)
			return nil, repository.ErrNotFound
		}
		log.Error("failed to get game: %v", err)
		return nil, err
	}
	log.Debug("game found: %s vs %s", g.White, g.Black)
	return &g, nil
}

func applyFilter(q squirrel.SelectBuilder, f models.GameFilter) squirrel.SelectBuilder {
	if s := strings.TrimSpace(f.SearchText); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(squirrel.Or{
			squirrel.Like{"LOWER(white)": like},
			squirrel.Like{"LOWER(black)": like},
		})
	}
	if f.Opening != "" {
		q = q.Where(squirrel.Eq{"opening": f.Opening})
	}
	if f.DateFrom != "" {
		q = q.Where(squirrel.GtOrEq{"date": f.DateFrom})
	}
	if f.DateTo != "" {
		q = q.Where(squirrel.LtOrEq{"date": f.DateTo})
	}
	if f.Result != "" {
		q = q.Where(squirrel.Eq{"result": f.Result})
	}
	if len(f.Tags) > 0 {
		args := make([]any, len(f.Tags))
		for i, t := range f.Tags {
			args[i] = t
		}
		q = q.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM json_each(games.tags) WHERE json_each.value IN ("+squirrel.Placeholders(len(args))+"))",
			args...,
		))
	}
	return q
}

func (r *gameRepository) List(ctx context.Context, filter models.GameFilter) ([]models.GameRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing games with filter: search=%q, opening=%q, result=%q, tags=%v, from=%q, to=%q",
		filter.SearchText, filter.Opening, filter.Result, filter.Tags, filter.DateFrom, filter.DateTo)

	query := applyFilter(sqlBuilder.Select(gameColumns...).From("games"), filter)

	orderDir := "DESC"
	if strings.EqualFold(filter.OrderDir, "ASC") {
		orderDir = "ASC"
	}
	query = query.OrderBy("created_at "+orderDir, "id "+orderDir)

	// Zero limit lists everything; export relies on it.
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query = query.Limit(uint64(filter.Limit)).Offset(uint64(offset))
	}

	sqlText, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, err
	}
	defer rows.Close()

	games := []models.GameRecord{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			log.Error("failed to scan game row: %v", err)
			return nil, err
		}
		games = append(games, g)
	}
	log.Debug("found %d games", len(games))
	return games, rows.Err()
}

func (r *gameRepository) Count(ctx context.Context, filter models.GameFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	sqlText, args, err := applyFilter(sqlBuilder.Select("COUNT(*)").From("games"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlText, args...).Scan(&count); err != nil {
		log.Error("failed to count games: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *gameRepository) IDs(ctx context.Context) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM games ORDER BY id`)
	if err != nil {
		log.Error("failed to list game ids: %v", err)
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertArgs(g models.GameRecord, now time.Time) ([]any, error) {
	g.ApplyDefaults()
	tags, err := json.Marshal(g.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		g.Event, g.Site, g.Date, g.White, g.Black, g.Result, g.ECO, g.Opening,
		nullInt(g.WhiteElo), nullInt(g.BlackElo), g.PGN, string(tags), g.Notes, g.MoveCount, now, now,
	}, nil
}

func (r *gameRepository) Insert(ctx context.Context, g models.GameRecord) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("inserting game: %s vs %s", g.White, g.Black)

	args, err := insertArgs(g, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, insertGameSQL, args...)
	if err != nil {
		log.Error("failed to insert game: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	log.Debug("game inserted: id=%d", id)
	return id, nil
}

func (r *gameRepository) InsertBatch(ctx context.Context, games []models.GameRecord) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("batch inserting %d games", len(games))

	if len(games) == 0 {
		return []int64{}, nil
	}

	now := time.Now().UTC()
	ids := make([]int64, 0, len(games))
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertGameSQL)
		if err != nil {
			log.Error("failed to prepare batch insert: %v", err)
			return err
		}
		defer stmt.Close()

		for i, g := range games {
			args, err := insertArgs(g, now)
			if err != nil {
				return err
			}
			res, err := stmt.ExecContext(ctx, args...)
			if err != nil {
				log.Error("failed to insert game %d of batch: %v", i, err)
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("batch insert completed, %d games inserted", len(ids))
	return ids, nil
}

func (r *gameRepository) Update(ctx context.Context, g models.GameRecord) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("updating game: id=%d", g.ID)

	g.ApplyDefaults()
	tags, err := json.Marshal(g.Tags)
	if err != nil {
		return err
	}

	sqlText, args, err := sqlBuilder.Update("games").SetMap(map[string]any{
		"event":      g.Event,
		"site":       g.Site,
		"date":       g.Date,
		"white":      g.White,
		"black":      g.Black,
		"result":     g.Result,
		"eco":        g.ECO,
		"opening":    g.Opening,
		"white_elo":  nullInt(g.WhiteElo),
		"black_elo":  nullInt(g.BlackElo),
		"pgn":        g.PGN,
		"tags":       string(tags),
		"notes":      g.Notes,
		"move_count": g.MoveCount,
		"updated_at": time.Now().UTC(),
	}).Where(squirrel.Eq{"id": g.ID}).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, log, sqlText, args...)
}

func (r *gameRepository) UpdateOpening(ctx context.Context, id int64, ecoCode, openingName string) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("updating game opening: game_id=%d, eco=%s, opening=%s", id, ecoCode, openingName)

	return r.execOne(ctx, log, `
UPDATE games
SET eco = ?, opening = ?, updated_at = ?
WHERE id = ?
`, ecoCode, openingName, time.Now().UTC(), id)
}

func (r *gameRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("deleting game: id=%d", id)

	return r.execOne(ctx, log, `DELETE FROM games WHERE id = ?`, id)
}

// execOne runs a statement that must touch exactly one game.
func (r *gameRepository) execOne(ctx context.Context, log *logger.Logger, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("statement failed: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *gameRepository) Clear(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	res, err := r.db.ExecContext(ctx, `DELETE FROM games`)
	if err != nil {
		log.Error("failed to clear games: %v", err)
		return err
	}
	n, _ := res.RowsAffected()
	log.Info("cleared %d games", n)
	return nil
}

func (r *gameRepository) Openings(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT opening FROM games WHERE opening != '' ORDER BY opening`)
}

func (r *gameRepository) Tags(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT json_each.value FROM games, json_each(games.tags) ORDER BY 1`)
}

func (r *gameRepository) distinct(ctx context.Context, query string) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list values: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *gameRepository) UsedBytes(ctx context.Context) (int64, error) {
	var used int64
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(LENGTH(CAST(pgn AS BLOB)) + LENGTH(CAST(notes AS BLOB))), 0)
FROM games
`).Scan(&used)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("game_repo").Error("failed to compute storage usage: %v", err)
		return 0, err
	}
	return used, nil
}
