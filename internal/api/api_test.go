package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/api"
	"github.com/vytor/pgnbase/internal/opening"
	"github.com/vytor/pgnbase/internal/repository/sqlite"
	"github.com/vytor/pgnbase/internal/services"
	"github.com/vytor/pgnbase/internal/testutil"
	"github.com/vytor/pgnbase/internal/testutil/mocks"
)

const testMaxBytes = 1 << 20

type testEnv struct {
	handler http.Handler
	queue   *mocks.MockJobQueue
	server  *api.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	repo := sqlite.NewGameRepository(db)
	resolver := opening.NewResolver(opening.NewIndex([]opening.EcoEntry{
		{ECO: "B20", Name: "Sicilian Defense", Moves: []string{"e4", "c5"}},
		{ECO: "B00", Name: "King's Pawn Game", Moves: []string{"e4"}},
	}), nil)
	queue := new(mocks.MockJobQueue)

	srv := &api.Server{
		GameService:    services.NewGameService(repo, testMaxBytes),
		ImportService:  services.NewImportService(repo, nil, testMaxBytes),
		OpeningService: services.NewOpeningService(resolver, opening.NewSessions(resolver, 8), nil, queue),
		PGNService:     services.NewPGNService(),
		JobQueue:       queue,
		DB:             db,
	}
	return &testEnv{handler: srv.Routes(), queue: queue, server: srv}
}

// do sends a request. A string body is sent as text, anything else as JSON.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
		contentType = "text/plain"
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, rec).Error.Code
}
