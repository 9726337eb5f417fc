package chesscom_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/chesscom"
	"github.com/vytor/pgnbase/internal/errors"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/player/alice/games/archives", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]string{"archives": {
			srv.URL + "/archives/2024/01",
			srv.URL + "/archives/2024/02",
			srv.URL + "/archives/2024/03",
		}})
	})
	mux.HandleFunc("/player/empty/games/archives", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"archives":[]}`)
	})
	mux.HandleFunc("/archives/2024/01/pgn", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "[Event \"January\"]\n\n1. e4 *\n")
	})
	mux.HandleFunc("/archives/2024/02/pgn", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/archives/2024/03/pgn", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "[Event \"March\"]\n\n1. d4 *\n")
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchPGNSkipsFailedMonths(t *testing.T) {
	srv := newServer(t)
	c := chesscom.New(srv.URL+"/player", 2)

	text, err := c.FetchPGN(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, "[Event \"January\"]\n\n1. e4 *\n\n[Event \"March\"]\n\n1. d4 *", text)
}

func TestClient_FetchArchives(t *testing.T) {
	srv := newServer(t)
	c := chesscom.New(srv.URL+"/player/", 1)

	archives, err := c.FetchArchives(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, archives, 3)
}

func TestClient_Errors(t *testing.T) {
	srv := newServer(t)
	c := chesscom.New(srv.URL+"/player", 1)

	_, err := c.FetchPGN(context.Background(), "nobody")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	_, err = c.FetchPGN(context.Background(), "empty")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
