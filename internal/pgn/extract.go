package pgn

import (
	"strings"
)

// ExtractMoves returns the main-line SAN tokens of a PGN game without replaying it.
// Header tags, comments, variations, move numbers, NAGs, results and assessment glyphs are
// dropped. It is cheap enough for classifying large stored collections.
func ExtractMoves(pgnText string) []string {
	lines := strings.Split(normalizeNewlines(pgnText), "\n")
	i := 0
	for i < len(lines) && (strings.TrimSpace(lines[i]) == "" || IsHeaderLine(lines[i])) {
		i++
	}

	var (
		moves     []string
		variation int
	)
	for _, it := range lex(strings.Join(lines[i:], "\n")) {
		switch it.kind {
		case itemOpenVariation:
			variation++
		case itemCloseVariation:
			if variation > 0 {
				variation--
			}
		case itemWord:
			if variation > 0 || IsMoveNumber(it.text) || IsNAG(it.text) || IsResult(it.text) {
				continue
			}
			if tok := StripGlyphs(it.text); tok != "" {
				moves = append(moves, tok)
			}
		}
	}
	return moves
}
