package pgn_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/pgn"
)

func TestSplit_TwoGames(t *testing.T) {
	blob := `[Event "A"]
[White "Alice"]

1. e4 *

[Event "B"]
[White "Bob"]

1. d4 *
`
	records := pgn.ParseRecords(blob)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Event)
	assert.Equal(t, "B", records[1].Event)
	assert.Equal(t, "[Event \"A\"]\n[White \"Alice\"]\n\n1. e4 *", records[0].PGN)
	assert.Equal(t, "[Event \"B\"]\n[White \"Bob\"]\n\n1. d4 *", records[1].PGN)
}

func TestSplit_KGames(t *testing.T) {
	for _, k := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			var sb strings.Builder
			for i := 0; i < k; i++ {
				fmt.Fprintf(&sb, "[Event \"G%d\"]\n[Round \"%d\"]\n\n1. e4 e5 2. Nf3 {game %d} *\n\n", i, i, i)
			}

			units := pgn.Split(sb.String())
			require.Len(t, units, k)
			for i, u := range units {
				assert.Len(t, u.HeaderLines, 2)
				assert.Equal(t, []string{fmt.Sprintf("1. e4 e5 2. Nf3 {game %d} *", i)}, u.MovetextLines)
				assert.Equal(t, fmt.Sprintf("G%d", i), pgn.ToRecord(u).Event)
			}
		})
	}
}

func TestSplit_NoBlankLineBetweenGames(t *testing.T) {
	blob := "[Event \"A\"]\n1. e4 e5\n2. Nf3 1-0\n[Event \"B\"]\n1. d4 0-1"

	units := pgn.Split(blob)
	require.Len(t, units, 2)
	assert.Equal(t, []string{"1. e4 e5", "2. Nf3 1-0"}, units[0].MovetextLines)
	assert.Equal(t, []string{"1. d4 0-1"}, units[1].MovetextLines)
}

func TestSplit_HeadersOnlyGameKept(t *testing.T) {
	blob := "[Event \"Aborted\"]\n[Result \"*\"]\n\n[Event \"Real\"]\n\n1. e4 *"

	units := pgn.Split(blob)
	require.Len(t, units, 2)
	assert.Empty(t, units[0].MovetextLines)

	rec := pgn.ToRecord(units[0])
	assert.Equal(t, "Aborted", rec.Event)
	assert.Equal(t, 0, rec.MoveCount)
	assert.Equal(t, "[Event \"Aborted\"]\n[Result \"*\"]", rec.PGN)
}

func TestSplit_TrailingHeadersOnly(t *testing.T) {
	units := pgn.Split("1. e4 *\n\n[Event \"Dangling\"]")
	require.Len(t, units, 2)
	assert.Empty(t, units[0].HeaderLines)
	assert.Equal(t, []string{`[Event "Dangling"]`}, units[1].HeaderLines)
}

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, pgn.Split(""))
	assert.Empty(t, pgn.Split("\n\n   \n"))
}

func TestToRecord_Defaults(t *testing.T) {
	rec := pgn.ToRecord(pgn.RawGameUnit{MovetextLines: []string{"1. e4 e5 2. Nf3 Nc6 3. Bb5"}})

	assert.Equal(t, models.DefaultPlayer, rec.White)
	assert.Equal(t, models.DefaultPlayer, rec.Black)
	assert.Equal(t, models.DefaultEvent, rec.Event)
	assert.Equal(t, models.DefaultDate, rec.Date)
	assert.Equal(t, models.DefaultResult, rec.Result)
	assert.Empty(t, rec.ECO)
	assert.Empty(t, rec.Opening)
	assert.Nil(t, rec.WhiteElo)
	assert.Equal(t, 3, rec.MoveCount)
	assert.Empty(t, rec.Tags)
}

func TestToRecord_HeaderFields(t *testing.T) {
	units := pgn.Split(`[Event "Titled Arena"]
[Site "https://lichess.org/abc"]
[Date "2024.03.01"]
[White "W"]
[Black "B"]
[Result "0-1"]
[WhiteElo "2710"]
[BlackElo "?"]
[ECO "C65"]
[Opening "Ruy Lopez: Berlin Defense"]

1.e4 e5 2.Nf3 Nc6 3.Bb5 Nf6 0-1`)
	require.Len(t, units, 1)

	rec := pgn.ToRecord(units[0])
	assert.Equal(t, "Titled Arena", rec.Event)
	assert.Equal(t, "https://lichess.org/abc", rec.Site)
	assert.Equal(t, "2024.03.01", rec.Date)
	assert.Equal(t, "0-1", rec.Result)
	assert.Equal(t, "C65", rec.ECO)
	assert.Equal(t, "Ruy Lopez: Berlin Defense", rec.Opening)
	require.NotNil(t, rec.WhiteElo)
	assert.Equal(t, 2710, *rec.WhiteElo)
	assert.Nil(t, rec.BlackElo)
	assert.Equal(t, 3, rec.MoveCount)
}

func TestCountMoveNumbers(t *testing.T) {
	assert.Equal(t, 2, pgn.CountMoveNumbers("1. e4 e5 2. Nf3 2... Nc6"))
	assert.Equal(t, 2, pgn.CountMoveNumbers("1.e4 e5 2.Nf3"))
	assert.Equal(t, 0, pgn.CountMoveNumbers("e4 e5 1-0"))
}
