package opening_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/opening"
)

func sicilianScandinavian() *opening.Index {
	return opening.NewIndex([]opening.EcoEntry{
		{ECO: "B20", Name: "Sicilian Defense", Moves: []string{"e4", "c5"}},
		{ECO: "B01", Name: "Scandinavian Defense", Moves: []string{"e4", "d5"}},
		{ECO: "B00", Name: "King's Pawn Game", Moves: []string{"e4"}},
	})
}

func TestIndex_LongestPrefixWithLength(t *testing.T) {
	ix := sicilianScandinavian()

	m := ix.Lookup([]string{"e4", "c5", "Nc3"}, 2)
	require.NotNil(t, m)
	assert.Equal(t, "B20", m.ECO)
	assert.Equal(t, "Sicilian Defense", m.Name)
	assert.Equal(t, 2, m.Depth)
}

func TestIndex_LengthLimitsSearch(t *testing.T) {
	ix := sicilianScandinavian()

	m := ix.Lookup([]string{"e4", "c5", "Nc3"}, 1)
	require.NotNil(t, m)
	assert.Equal(t, "B00", m.ECO)
	assert.Equal(t, 1, m.Depth)
}

func TestIndex_NoMatch(t *testing.T) {
	ix := sicilianScandinavian()
	assert.Nil(t, ix.Lookup([]string{"d4", "d5"}, 0))
	assert.Nil(t, ix.Lookup(nil, 0))
}

func TestIndex_FirstEntryWinsAfterLengthSort(t *testing.T) {
	ix := opening.NewIndex([]opening.EcoEntry{
		{ECO: "C20", Name: "Short", Moves: []string{"e4", "e5"}},
		{ECO: "C44", Name: "First", Moves: []string{"e4", "e5", "Nf3", "Nc6"}},
		{ECO: "C44", Name: "Duplicate", Moves: []string{"e4", "e5", "Nf3", "Nc6"}},
		{ECO: "X00", Name: "Empty", Moves: nil},
	})

	assert.Equal(t, 2, ix.Len())
	m := ix.Lookup([]string{"e4", "e5", "Nf3", "Nc6", "Bb5"}, 0)
	require.NotNil(t, m)
	assert.Equal(t, "First", m.Name)
}

func TestIndex_NeverReturnsShorterPrefixThanAvailable(t *testing.T) {
	ix, err := opening.DefaultIndex()
	require.NoError(t, err)

	lines := [][]string{
		{"e4", "c5", "Nf3", "d6", "d4", "cxd4", "Nxd4", "Nf6", "Nc3", "a6", "Be3"},
		{"d4", "Nf6", "c4", "e6", "Nc3", "Bb4", "Qc2"},
		{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Ba4"},
		{"c4", "e5", "Nc3"},
	}
	for _, moves := range lines {
		m := ix.Lookup(moves, 0)
		require.NotNil(t, m, strings.Join(moves, " "))
		for n := len(moves); n > m.Depth; n-- {
			longer := ix.Lookup(moves[:n], n)
			require.NotNil(t, longer)
			assert.Equal(t, m.Depth, longer.Depth, "a longer prefix of %v matched", moves)
		}
	}
}

func TestDefaultIndex_KnownLines(t *testing.T) {
	ix, err := opening.DefaultIndex()
	require.NoError(t, err)
	assert.Greater(t, ix.Len(), 50)

	tests := []struct {
		moves []string
		eco   string
		name  string
	}{
		{[]string{"e4", "c5"}, "B20", "Sicilian Defense"},
		{[]string{"e4", "e5", "Nf3", "Nc6", "Bb5", "Nf6", "O-O"}, "C65", "Ruy Lopez: Berlin Defense"},
		{[]string{"d4", "d5", "c4", "c6", "Nf3"}, "D10", "Slav Defense"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ix.Lookup(tt.moves, 0)
			require.NotNil(t, m)
			assert.Equal(t, tt.eco, m.ECO)
			assert.Equal(t, tt.name, m.Name)
		})
	}
}

func TestLoadIndex_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eco.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"eco":"A00","name":"Test","moves":["a3"]}]`), 0o600))

	ix, err := opening.LoadIndex(path)
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())

	_, err = opening.LoadIndex(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
