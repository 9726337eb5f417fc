package pgn

import (
	"strconv"
	"strings"
)

const maxLineWidth = 79

// DocMove is one ply of a game being written.
type DocMove struct {
	SAN     string `json:"san"`
	Comment string `json:"comment,omitempty"`
}

// Document is everything needed to emit a standards-conformant single game.
type Document struct {
	Headers Headers `json:"headers"`
	// Intro is the comment before the first move.
	Intro string    `json:"intro,omitempty"`
	Moves []DocMove `json:"moves"`
	// Result defaults to the Result header, then "*".
	Result string `json:"result,omitempty"`
	// StartNumber is the fullmove number of the first move; zero means 1.
	StartNumber int `json:"startNumber,omitempty"`
	// BlackFirst is set when the game starts from a position with Black to move.
	BlackFirst bool `json:"blackFirst,omitempty"`
}

// Write renders doc as PGN: tag pairs, a blank line, then movetext wrapped under 80 columns
// with brace comments only. Braces inside comment text are written as parentheses, so a
// nested comment does not come back verbatim.
func Write(doc Document) string {
	result := doc.Result
	if result == "" {
		result = doc.Headers.Result
	}
	if result == "" {
		result = "*"
	}
	headers := doc.Headers
	headers.Result = result

	start := doc.StartNumber
	if start <= 0 {
		start = 1
	}

	var tokens []string
	if c := renderComment(doc.Intro); c != "" {
		tokens = append(tokens, c)
	}
	needNumber := true
	for i, mv := range doc.Moves {
		offset := i
		if doc.BlackFirst {
			offset++
		}
		number := start + offset/2
		if offset%2 == 0 {
			tokens = append(tokens, strconv.Itoa(number)+".")
		} else if needNumber {
			tokens = append(tokens, strconv.Itoa(number)+"...")
		}
		tokens = append(tokens, mv.SAN)
		needNumber = false
		if c := renderComment(mv.Comment); c != "" {
			tokens = append(tokens, c)
			needNumber = true
		}
	}
	tokens = append(tokens, result)

	var sb strings.Builder
	for _, line := range headers.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(wrap(tokens, maxLineWidth))
	sb.WriteByte('\n')
	return sb.String()
}

func renderComment(text string) string {
	text = collapseSpace(flattenBraces(text))
	if text == "" {
		return ""
	}
	return "{" + text + "}"
}

// wrap joins tokens with spaces, breaking lines before width is exceeded. Comments may be
// split across lines at word boundaries.
func wrap(tokens []string, width int) string {
	var (
		sb      strings.Builder
		lineLen int
	)
	for _, tok := range tokens {
		for _, word := range strings.Fields(tok) {
			switch {
			case lineLen == 0:
			case lineLen+1+len(word) > width:
				sb.WriteByte('\n')
				lineLen = 0
			default:
				sb.WriteByte(' ')
				lineLen++
			}
			sb.WriteString(word)
			lineLen += len(word)
		}
	}
	return sb.String()
}
