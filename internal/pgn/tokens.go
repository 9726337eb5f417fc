package pgn

import (
	"regexp"
	"strings"
)

var (
	moveNumberRe = regexp.MustCompile(`^\d+\.+$`)
	// gluedNumberRe splits "1.e4" and "12...Nf6" into number and move. The move may not
	// start with a dot, so a bare "1..." never splits.
	gluedNumberRe = regexp.MustCompile(`^(\d+\.+)([^.\s]\S*)$`)
	nagRe         = regexp.MustCompile(`^\$\d+$`)
	sanRe         = regexp.MustCompile(`^(?:[NBRQK][a-h]?[1-8]?x?[a-h][1-8]|[a-h](?:x[a-h])?[1-8](?:=?[NBRQ])?|O-O(?:-O)?|0-0(?:-0)?)[+#]?[!?]*$`)
	vendorTagRe   = regexp.MustCompile(`\[%[^\]]*\]`)
)

// Results lists the game termination markers.
var Results = []string{"1-0", "0-1", "1/2-1/2", "*"}

// IsResult reports whether tok is a game termination marker.
func IsResult(tok string) bool {
	for _, r := range Results {
		if tok == r {
			return true
		}
	}
	return false
}

// IsMoveNumber reports whether tok is a bare move number such as "12." or "12...".
func IsMoveNumber(tok string) bool {
	return moveNumberRe.MatchString(tok)
}

// IsNAG reports whether tok is a numeric annotation glyph ($N).
func IsNAG(tok string) bool {
	return nagRe.MatchString(tok)
}

// IsSAN reports whether tok looks like a move in standard algebraic notation.
func IsSAN(tok string) bool {
	return sanRe.MatchString(tok)
}

// StripGlyphs removes trailing move assessment suffixes such as "!?" or "??".
func StripGlyphs(tok string) string {
	return strings.TrimRight(tok, "!?")
}

// StripVendorTags removes embedded annotations like [%clk 0:03:00] or [%eval 0.3]
// and collapses the remaining whitespace.
func StripVendorTags(comment string) string {
	return collapseSpace(vendorTagRe.ReplaceAllString(comment, " "))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// flattenBraces keeps comment text safe to wrap in a single pair of braces.
func flattenBraces(s string) string {
	return strings.NewReplacer("{", "(", "}", ")").Replace(s)
}

type itemKind int

const (
	itemWord itemKind = iota
	itemComment
	itemOpenVariation
	itemCloseVariation
	itemStray
)

type item struct {
	kind itemKind
	text string
}

// lex scans movetext in a single pass. Brace comments nest; a semicolon outside a comment
// runs to end of line; a closing brace with no open comment becomes an itemStray; an
// unterminated comment is closed at end of input.
func lex(s string) []item {
	var (
		items   []item
		word    strings.Builder
		comment strings.Builder
		depth   int
	)

	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		word.Reset()
		if IsMoveNumber(w) {
			items = append(items, item{kind: itemWord, text: w})
			return
		}
		if m := gluedNumberRe.FindStringSubmatch(w); m != nil && !IsResult(w) {
			items = append(items, item{kind: itemWord, text: m[1]}, item{kind: itemWord, text: m[2]})
			return
		}
		items = append(items, item{kind: itemWord, text: w})
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if depth > 0 {
			switch c {
			case '{':
				depth++
				comment.WriteByte(c)
			case '}':
				depth--
				if depth == 0 {
					items = append(items, item{kind: itemComment, text: comment.String()})
					comment.Reset()
				} else {
					comment.WriteByte(c)
				}
			default:
				comment.WriteByte(c)
			}
			continue
		}

		switch c {
		case '{':
			flushWord()
			depth = 1
		case '}':
			flushWord()
			items = append(items, item{kind: itemStray, text: "}"})
		case ';':
			flushWord()
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				end = len(s) - i
			}
			items = append(items, item{kind: itemComment, text: s[i+1 : i+end]})
			i += end - 1
		case '(':
			flushWord()
			items = append(items, item{kind: itemOpenVariation, text: "("})
		case ')':
			flushWord()
			items = append(items, item{kind: itemCloseVariation, text: ")"})
		case ' ', '\t', '\n', '\r', '\f', '\v':
			flushWord()
		default:
			word.WriteByte(c)
		}
	}
	flushWord()
	if depth > 0 {
		items = append(items, item{kind: itemComment, text: comment.String()})
	}
	return items
}
