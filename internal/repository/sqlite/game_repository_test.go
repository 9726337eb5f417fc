package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/repository"
	"github.com/vytor/pgnbase/internal/repository/sqlite"
	"github.com/vytor/pgnbase/internal/testutil"
)

type GameRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.GameRepository
	ctx  context.Context
}

func (s *GameRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewGameRepository(s.db)
	s.ctx = context.Background()
}

func (s *GameRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func withElo(white, black int) func(*models.GameRecord) {
	return func(g *models.GameRecord) {
		g.WhiteElo = &white
		g.BlackElo = &black
	}
}

func withTags(tags ...string) func(*models.GameRecord) {
	return func(g *models.GameRecord) { g.Tags = tags }
}

func (s *GameRepositorySuite) TestInsertAndGet() {
	game := testutil.Game("Carlsen", "Nepomniachtchi", withElo(2850, 2790), withTags("wc", "2021"))
	game.ECO = "C88"
	game.Opening = "Ruy Lopez"
	game.Notes = "game six"

	id, err := s.repo.Insert(s.ctx, game)
	s.Require().NoError(err)
	s.Assert().Greater(id, int64(0))

	got, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(id, got.ID)
	s.Assert().Equal("Carlsen", got.White)
	s.Assert().Equal("C88", got.ECO)
	s.Assert().Equal("Ruy Lopez", got.Opening)
	s.Assert().Equal([]string{"wc", "2021"}, got.Tags)
	s.Assert().Equal("game six", got.Notes)
	s.Require().NotNil(got.WhiteElo)
	s.Assert().Equal(2850, *got.WhiteElo)
	s.Assert().False(got.CreatedAt.IsZero())
}

func (s *GameRepositorySuite) TestInsertAppliesDefaults() {
	id, err := s.repo.Insert(s.ctx, models.GameRecord{PGN: "1. d4 *"})
	s.Require().NoError(err)

	got, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(models.DefaultPlayer, got.White)
	s.Assert().Equal(models.DefaultDate, got.Date)
	s.Assert().Equal(models.DefaultResult, got.Result)
	s.Assert().Nil(got.WhiteElo)
	s.Assert().Empty(got.Tags)
}

func (s *GameRepositorySuite) TestGet_NotFound() {
	game, err := s.repo.Get(s.ctx, 99999)
	s.Assert().ErrorIs(err, repository.ErrNotFound)
	s.Assert().Nil(game)
}

func (s *GameRepositorySuite) TestInsertBatch() {
	ids, err := s.repo.InsertBatch(s.ctx, []models.GameRecord{
		testutil.Game("a", "b"),
		testutil.Game("c", "d"),
		testutil.Game("e", "f"),
	})
	s.Require().NoError(err)
	s.Require().Len(ids, 3)
	s.Assert().Less(ids[0], ids[1])
	s.Assert().Less(ids[1], ids[2])

	all, err := s.repo.IDs(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal(ids, all)
}

func (s *GameRepositorySuite) TestInsertBatch_Empty() {
	ids, err := s.repo.InsertBatch(s.ctx, nil)
	s.Require().NoError(err)
	s.Assert().Empty(ids)
}

func (s *GameRepositorySuite) TestList_WithFilters() {
	_, err := s.repo.InsertBatch(s.ctx, []models.GameRecord{
		testutil.Game("Kasparov", "Karpov", withTags("classic", "wc")),
		testutil.Game("Fischer", "Spassky", withTags("wc"), func(g *models.GameRecord) {
			g.Date = "1972.07.11"
			g.Result = "0-1"
			g.Opening = "Nimzo-Indian Defense"
		}),
		testutil.Game("Tal", "Botvinnik", func(g *models.GameRecord) {
			g.Date = "1960.03.15"
			g.Opening = "Nimzo-Indian Defense"
		}),
	})
	s.Require().NoError(err)

	tests := []struct {
		name   string
		filter models.GameFilter
		want   []string
	}{
		{"no filter", models.GameFilter{OrderDir: "ASC"}, []string{"Kasparov", "Fischer", "Tal"}},
		{"search is case-insensitive on either side", models.GameFilter{SearchText: "karp"}, []string{"Kasparov"}},
		{"search black", models.GameFilter{SearchText: "SPASS"}, []string{"Fischer"}},
		{"opening", models.GameFilter{Opening: "Nimzo-Indian Defense", OrderDir: "ASC"}, []string{"Fischer", "Tal"}},
		{"result", models.GameFilter{Result: "0-1"}, []string{"Fischer"}},
		{"date range", models.GameFilter{DateFrom: "1970.01.01", DateTo: "1979.12.31"}, []string{"Fischer"}},
		{"tags any-of", models.GameFilter{Tags: []string{"classic", "missing"}}, []string{"Kasparov"}},
		{"tags shared", models.GameFilter{Tags: []string{"wc"}, OrderDir: "ASC"}, []string{"Kasparov", "Fischer"}},
		{"paging", models.GameFilter{OrderDir: "ASC", Limit: 1, Offset: 1}, []string{"Fischer"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			games, err := s.repo.List(s.ctx, tt.filter)
			s.Require().NoError(err)
			var whites []string
			for _, g := range games {
				whites = append(whites, g.White)
			}
			s.Assert().Equal(tt.want, whites)

			tt.filter.Limit, tt.filter.Offset = 0, 0
			count, err := s.repo.Count(s.ctx, tt.filter)
			s.Require().NoError(err)
			if tt.name != "paging" {
				s.Assert().Equal(len(tt.want), count)
			}
		})
	}
}

func (s *GameRepositorySuite) TestUpdate() {
	id, err := s.repo.Insert(s.ctx, testutil.Game("a", "b"))
	s.Require().NoError(err)

	game, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	game.Notes = "annotated"
	game.Tags = []string{" x ", "x", "y"}
	s.Require().NoError(s.repo.Update(s.ctx, *game))

	got, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal("annotated", got.Notes)
	s.Assert().Equal([]string{"x", "y"}, got.Tags)

	game.ID = 424242
	s.Assert().ErrorIs(s.repo.Update(s.ctx, *game), repository.ErrNotFound)
}

func (s *GameRepositorySuite) TestUpdateOpening() {
	id, err := s.repo.Insert(s.ctx, testutil.Game("a", "b"))
	s.Require().NoError(err)

	s.Require().NoError(s.repo.UpdateOpening(s.ctx, id, "B20", "Sicilian Defense"))
	got, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal("B20", got.ECO)
	s.Assert().Equal("Sicilian Defense", got.Opening)

	s.Assert().ErrorIs(s.repo.UpdateOpening(s.ctx, id+100, "A00", "x"), repository.ErrNotFound)
}

func (s *GameRepositorySuite) TestDeleteAndClear() {
	ids, err := s.repo.InsertBatch(s.ctx, []models.GameRecord{testutil.Game("a", "b"), testutil.Game("c", "d")})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Delete(s.ctx, ids[0]))
	s.Assert().ErrorIs(s.repo.Delete(s.ctx, ids[0]), repository.ErrNotFound)

	count, err := s.repo.Count(s.ctx, models.GameFilter{})
	s.Require().NoError(err)
	s.Assert().Equal(1, count)

	s.Require().NoError(s.repo.Clear(s.ctx))
	count, err = s.repo.Count(s.ctx, models.GameFilter{})
	s.Require().NoError(err)
	s.Assert().Zero(count)
}

func (s *GameRepositorySuite) TestOpeningsTagsAndUsage() {
	used, err := s.repo.UsedBytes(s.ctx)
	s.Require().NoError(err)
	s.Assert().Zero(used)

	games := []models.GameRecord{
		testutil.Game("a", "b", withTags("blitz", "online"), func(g *models.GameRecord) { g.Opening = "Sicilian Defense" }),
		testutil.Game("c", "d", withTags("online"), func(g *models.GameRecord) { g.Opening = "French Defense" }),
		testutil.Game("e", "f", func(g *models.GameRecord) { g.Notes = "é" }),
	}
	_, err = s.repo.InsertBatch(s.ctx, games)
	s.Require().NoError(err)

	openings, err := s.repo.Openings(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"French Defense", "Sicilian Defense"}, openings)

	tags, err := s.repo.Tags(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"blitz", "online"}, tags)

	var want int64
	for _, g := range games {
		want += g.StorageBytes()
	}
	used, err = s.repo.UsedBytes(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal(want, used)
}

func TestGameRepositorySuite(t *testing.T) {
	suite.Run(t, new(GameRepositorySuite))
}
