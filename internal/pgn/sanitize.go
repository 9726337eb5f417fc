package pgn

import (
	"strings"
)

// IntroPly is the ply key of a comment that precedes the first move.
const IntroPly = -1

// Comment is a main-line comment attached to the position reached after Ply.
type Comment struct {
	Ply  int    `json:"ply"`
	Text string `json:"text"`
}

// Sanitized is the normalized form of a single game.
type Sanitized struct {
	// Text is header block, blank line and cleaned movetext.
	Text        string   `json:"text"`
	HeaderLines []string `json:"headerLines"`
	Movetext    string   `json:"movetext"`
	// Moves holds the main-line SAN tokens without assessment glyphs.
	Moves    []string  `json:"moves"`
	Comments []Comment `json:"comments"`
	// Result is the termination marker found on the main line, if any.
	Result string `json:"result"`
}

// CommentAt returns the comment following ply, or "".
func (s Sanitized) CommentAt(ply int) string {
	for _, c := range s.Comments {
		if c.Ply == ply {
			return c.Text
		}
	}
	return ""
}

// Headers parses the header block.
func (s Sanitized) Headers() Headers {
	return ParseHeaders(s.HeaderLines)
}

// Sanitize normalizes one game of possibly malformed PGN so that a strict movetext parser
// accepts it. It never fails: unbalanced braces, semicolon comments and vendor annotations
// are repaired or dropped. Sanitize(Sanitize(x).Text) yields the same Text.
func Sanitize(text string) Sanitized {
	lines := strings.Split(normalizeNewlines(text), "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}

	var out Sanitized
	for ; i < len(lines) && IsHeaderLine(lines[i]); i++ {
		out.HeaderLines = append(out.HeaderLines, strings.TrimSpace(lines[i]))
	}

	var (
		tokens    []string
		variation int
	)
	for _, it := range lex(strings.Join(lines[i:], "\n")) {
		switch it.kind {
		case itemComment:
			body := StripVendorTags(it.text)
			if body == "" {
				continue
			}
			tokens = append(tokens, "{"+flattenBraces(body)+"}")
			if variation == 0 {
				out.addComment(len(out.Moves)-1, body)
			}
		case itemOpenVariation:
			variation++
			tokens = append(tokens, it.text)
		case itemCloseVariation:
			if variation > 0 {
				variation--
			}
			tokens = append(tokens, it.text)
		case itemStray:
			tokens = append(tokens, it.text)
		case itemWord:
			tokens = append(tokens, it.text)
			if variation > 0 {
				continue
			}
			switch {
			case IsResult(it.text):
				out.Result = it.text
			case IsSAN(it.text):
				out.Moves = append(out.Moves, StripGlyphs(it.text))
			}
		}
	}

	out.Movetext = strings.Join(tokens, " ")
	header := strings.Join(out.HeaderLines, "\n")
	switch {
	case header == "":
		out.Text = out.Movetext
	case out.Movetext == "":
		out.Text = header
	default:
		out.Text = header + "\n\n" + out.Movetext
	}
	return out
}

// addComment merges consecutive comments on the same ply.
func (s *Sanitized) addComment(ply int, text string) {
	if n := len(s.Comments); n > 0 && s.Comments[n-1].Ply == ply {
		s.Comments[n-1].Text += " " + text
		return
	}
	s.Comments = append(s.Comments, Comment{Ply: ply, Text: text})
}
