package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/db"
	"github.com/vytor/pgnbase/internal/models"
)

// NewTestDB opens a private in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	d, err := db.Open("file:test_" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	return d.DB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Game builds a record with sensible defaults for tests.
func Game(white, black string, opts ...func(*models.GameRecord)) models.GameRecord {
	g := models.GameRecord{
		Event:     "Test",
		Date:      "2024.01.01",
		White:     white,
		Black:     black,
		Result:    "1-0",
		PGN:       "[White \"" + white + "\"]\n[Black \"" + black + "\"]\n\n1. e4 e5 1-0",
		Tags:      []string{},
		MoveCount: 1,
	}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}
