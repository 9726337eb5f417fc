package pgn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/pgn"
)

func TestParseHeaderMap_ValidHeaders(t *testing.T) {
	pgnText := `[Event "Live Chess"]
[Site "Chess.com"]
[Date "2024.01.15"]
[White "Player1"]
[Black "Player2"]
[Result "1-0"]
[TimeControl "600+0"]
[ECO "B20"]

1. e4 c5 2. Nf3 d6`

	headers := pgn.ParseHeaderMap(pgnText)

	assert.Equal(t, "Live Chess", headers["Event"])
	assert.Equal(t, "Chess.com", headers["Site"])
	assert.Equal(t, "1-0", headers["Result"])
	assert.Equal(t, "600+0", headers["TimeControl"])
	assert.Equal(t, "B20", headers["ECO"])
}

func TestParseHeaderMap_MalformedHeaders(t *testing.T) {
	pgnText := `[Event Live Chess]
[Site Chess.com]
[Invalid header]
1. e4 e5`

	assert.Empty(t, pgn.ParseHeaderMap(pgnText), "malformed headers should be ignored")
}

func TestParseHeaders_TypedAndExtra(t *testing.T) {
	h := pgn.ParseHeaders([]string{
		`[White "Carlsen, Magnus"]`,
		`[TimeControl "180+2"]`,
		`[Opening "King's Gambit"]`,
		`[Annotator "A \"quoted\" name"]`,
	})

	assert.Equal(t, "Carlsen, Magnus", h.White)
	assert.Equal(t, "King's Gambit", h.Opening)
	assert.Equal(t, "180+2", h.Get("TimeControl"))
	assert.Equal(t, `A "quoted" name`, h.Get("Annotator"))
	require.Len(t, h.Extra, 2)
	assert.Equal(t, "TimeControl", h.Extra[0].Name)
}

func TestHeaders_LinesOrderAndEscaping(t *testing.T) {
	var h pgn.Headers
	h.Set("TimeControl", "600")
	h.Set("Black", "B")
	h.Set("Event", `Say "hi"`)
	h.Set("White", "W")

	assert.Equal(t, []string{
		`[Event "Say \"hi\""]`,
		`[White "W"]`,
		`[Black "B"]`,
		`[TimeControl "600"]`,
	}, h.Lines())

	parsed := pgn.ParseHeaders(h.Lines())
	assert.Equal(t, h, parsed)
}

func TestIsHeaderLine(t *testing.T) {
	assert.True(t, pgn.IsHeaderLine(`  [Event "x"]  `))
	assert.True(t, pgn.IsHeaderLine(`[Event ""]`))
	assert.False(t, pgn.IsHeaderLine(`[Event x]`))
	assert.False(t, pgn.IsHeaderLine(`1. e4 {[%clk 0:03:00]}`))
}
