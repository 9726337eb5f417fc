package api_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/models"
)

const sicilian = "[Event \"Club\"]\n[White \"Alice\"]\n[Black \"Bob\"]\n[Result \"1-0\"]\n\n1. e4 c5 2. Nf3 1-0"

func TestGames_CRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/games", models.GameRecord{PGN: sicilian, Tags: []string{"club"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.GameRecord](t, rec)
	assert.Equal(t, "Alice", created.White)
	assert.Equal(t, "1-0", created.Result)
	assert.Equal(t, 2, created.MoveCount)
	path := "/api/games/" + strconv.FormatInt(created.ID, 10)

	rec = env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"club"}, decode[models.GameRecord](t, rec).Tags)

	created.Notes = "sharp game"
	rec = env.do(t, http.MethodPut, path, created)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sharp game", decode[models.GameRecord](t, rec).Notes)

	rec = env.do(t, http.MethodGet, path+"/pgn", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-chess-pgn", rec.Header().Get("Content-Type"))
	assert.Equal(t, sicilian+"\n", rec.Body.String())

	rec = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeNotFound, errorCode(t, rec))
}

func TestGames_BadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"non-numeric id", http.MethodGet, "/api/games/abc", nil, http.StatusBadRequest},
		{"zero id", http.MethodDelete, "/api/games/0", nil, http.StatusBadRequest},
		{"missing pgn", http.MethodPost, "/api/games", models.GameRecord{White: "x"}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/games", "{not json", http.StatusBadRequest},
		{"bad order", http.MethodGet, "/api/games?order=sideways", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/games?limit=-1", nil, http.StatusBadRequest},
		{"unknown game update", http.MethodPut, "/api/games/999", models.GameRecord{PGN: "1. e4 *"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, errorCode(t, rec))
		})
	}
}

func TestGames_ListFiltersAndExport(t *testing.T) {
	env := newTestEnv(t)
	text := sicilian + "\n\n[White \"Carol\"]\n[Black \"Alice\"]\n[Result \"0-1\"]\n[Opening \"French Defense\"]\n\n1. e4 e6 0-1"
	env.queue.On("EnqueueEnrichment").Return(nil).Once()
	rec := env.do(t, http.MethodPost, "/api/games/import/pgn?tag=league", text)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env.queue.AssertExpectations(t)

	rec = env.do(t, http.MethodGet, "/api/games?search=alice&order=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Games []models.GameRecord `json:"games"`
		Total int                 `json:"total"`
	}](t, rec)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Games, 2)
	assert.Equal(t, "Alice", list.Games[0].White)
	assert.Equal(t, []string{"league"}, list.Games[0].Tags)

	rec = env.do(t, http.MethodGet, "/api/games?result=0-1&limit=1", nil)
	assert.Equal(t, 1, decode[struct {
		Total int `json:"total"`
	}](t, rec).Total)

	rec = env.do(t, http.MethodGet, "/api/games/export?tag=league", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "games.pgn")
	assert.Contains(t, rec.Body.String(), "[White \"Alice\"]")
	assert.Contains(t, rec.Body.String(), "\n\n[White \"Carol\"]")

	rec = env.do(t, http.MethodGet, "/api/games/ids", nil)
	assert.Len(t, decode[map[string][]int64](t, rec)["ids"], 2)

	rec = env.do(t, http.MethodGet, "/api/games/openings", nil)
	assert.Equal(t, []string{"French Defense"}, decode[map[string][]string](t, rec)["openings"])

	rec = env.do(t, http.MethodGet, "/api/games/tags", nil)
	assert.Equal(t, []string{"league"}, decode[map[string][]string](t, rec)["tags"])

	rec = env.do(t, http.MethodGet, "/api/storage", nil)
	info := decode[models.StorageInfo](t, rec)
	assert.Positive(t, info.UsedBytes)
	assert.Equal(t, int64(testMaxBytes), info.MaxBytes)

	rec = env.do(t, http.MethodDelete, "/api/games", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/games", nil)
	assert.Zero(t, decode[struct {
		Total int `json:"total"`
	}](t, rec).Total)
}
