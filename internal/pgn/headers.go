package pgn

import (
	"fmt"
	"regexp"
	"strings"
)

// headerLineRe matches a whole `[Key "Value"]` line. The value part is greedy so that
// unescaped quotes inside a value do not end the header block early.
var headerLineRe = regexp.MustCompile(`^\[(\w+)\s+"(.*)"\]$`)

// Tag is one header tag pair.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers holds the known PGN tags as fields; anything else lands in Extra in input order.
// An empty field means the tag is absent.
type Headers struct {
	Event    string `json:"event,omitempty"`
	Site     string `json:"site,omitempty"`
	Date     string `json:"date,omitempty"`
	Round    string `json:"round,omitempty"`
	White    string `json:"white,omitempty"`
	Black    string `json:"black,omitempty"`
	Result   string `json:"result,omitempty"`
	WhiteElo string `json:"whiteElo,omitempty"`
	BlackElo string `json:"blackElo,omitempty"`
	ECO      string `json:"eco,omitempty"`
	Opening  string `json:"opening,omitempty"`
	SetUp    string `json:"setUp,omitempty"`
	FEN      string `json:"fen,omitempty"`
	Extra    []Tag  `json:"extra,omitempty"`
}

// knownOrder is the emission order: seven tag roster first, then optional known tags.
var knownOrder = []string{
	"Event", "Site", "Date", "Round", "White", "Black", "Result",
	"WhiteElo", "BlackElo", "ECO", "Opening", "SetUp", "FEN",
}

// IsHeaderLine reports whether line (ignoring surrounding whitespace) is a tag pair.
func IsHeaderLine(line string) bool {
	return headerLineRe.MatchString(strings.TrimSpace(line))
}

// ParseHeaderLine decodes a single tag pair line.
func ParseHeaderLine(line string) (Tag, bool) {
	m := headerLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if len(m) != 3 {
		return Tag{}, false
	}
	return Tag{Name: m[1], Value: unescape(m[2])}, true
}

// ParseHeaders builds Headers from tag pair lines. Lines that are not tag pairs are skipped;
// a repeated tag keeps its last value.
func ParseHeaders(lines []string) Headers {
	var h Headers
	for _, line := range lines {
		if tag, ok := ParseHeaderLine(line); ok {
			h.Set(tag.Name, tag.Value)
		}
	}
	return h
}

// ParseHeaderMap extracts every tag pair found in text, one per line.
func ParseHeaderMap(text string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if tag, ok := ParseHeaderLine(line); ok {
			out[tag.Name] = tag.Value
		}
	}
	return out
}

func (h *Headers) field(name string) *string {
	switch name {
	case "Event":
		return &h.Event
	case "Site":
		return &h.Site
	case "Date":
		return &h.Date
	case "Round":
		return &h.Round
	case "White":
		return &h.White
	case "Black":
		return &h.Black
	case "Result":
		return &h.Result
	case "WhiteElo":
		return &h.WhiteElo
	case "BlackElo":
		return &h.BlackElo
	case "ECO":
		return &h.ECO
	case "Opening":
		return &h.Opening
	case "SetUp":
		return &h.SetUp
	case "FEN":
		return &h.FEN
	}
	return nil
}

// Set assigns a tag value, replacing an existing extra tag of the same name.
func (h *Headers) Set(name, value string) {
	if f := h.field(name); f != nil {
		*f = value
		return
	}
	for i := range h.Extra {
		if h.Extra[i].Name == name {
			h.Extra[i].Value = value
			return
		}
	}
	h.Extra = append(h.Extra, Tag{Name: name, Value: value})
}

// Get returns a tag value or "" when absent.
func (h Headers) Get(name string) string {
	if f := h.field(name); f != nil {
		return *f
	}
	for _, t := range h.Extra {
		if t.Name == name {
			return t.Value
		}
	}
	return ""
}

// Tags returns the present tags in emission order.
func (h Headers) Tags() []Tag {
	var out []Tag
	for _, name := range knownOrder {
		if v := h.Get(name); v != "" {
			out = append(out, Tag{Name: name, Value: v})
		}
	}
	for _, t := range h.Extra {
		if t.Value != "" {
			out = append(out, t)
		}
	}
	return out
}

// Lines renders the present tags as PGN tag pair lines.
func (h Headers) Lines() []string {
	tags := h.Tags()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, fmt.Sprintf(`[%s "%s"]`, t.Name, escape(t.Value)))
	}
	return out
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
