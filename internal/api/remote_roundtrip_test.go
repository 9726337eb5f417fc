package api_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/repository"
	"github.com/vytor/pgnbase/internal/repository/remote"
	"github.com/vytor/pgnbase/internal/testutil"
)

func TestRemoteRepository_AgainstServer(t *testing.T) {
	env := newTestEnv(t)
	env.server.APIToken = "token"
	srv := httptest.NewServer(env.server.Routes())
	t.Cleanup(srv.Close)

	repo := remote.NewGameRepository(srv.URL, "token", 5*time.Second)
	ctx := context.Background()

	ids, err := repo.InsertBatch(ctx, []models.GameRecord{
		testutil.Game("Polgar", "Short", func(g *models.GameRecord) { g.Tags = []string{"rapid"} }),
		testutil.Game("Short", "Polgar"),
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	all, err := repo.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids, all)

	count, err := repo.Count(ctx, models.GameFilter{Tags: []string{"rapid"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.UpdateOpening(ctx, ids[1], "B00", "King's Pawn Game"))
	g, err := repo.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "King's Pawn Game", g.Opening)

	openings, err := repo.Openings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"King's Pawn Game"}, openings)

	require.NoError(t, repo.Delete(ctx, ids[0]))
	_, err = repo.Get(ctx, ids[0])
	assert.ErrorIs(t, err, repository.ErrNotFound)

	used, err := repo.UsedBytes(ctx)
	require.NoError(t, err)
	assert.Positive(t, used)

	require.NoError(t, repo.Clear(ctx))
	games, err := repo.List(ctx, models.GameFilter{})
	require.NoError(t, err)
	assert.Empty(t, games)
}
