package pgn

import (
	"strconv"
	"strings"

	"github.com/vytor/pgnbase/internal/models"
)

// RawGameUnit is one game's lines as found in a multi-game blob.
type RawGameUnit struct {
	HeaderLines   []string
	MovetextLines []string
}

// Movetext joins the movetext lines.
func (u RawGameUnit) Movetext() string {
	return strings.Join(u.MovetextLines, "\n")
}

// Text reassembles the unit as a single PGN game.
func (u RawGameUnit) Text() string {
	header := strings.Join(u.HeaderLines, "\n")
	movetext := u.Movetext()
	switch {
	case header == "":
		return movetext
	case movetext == "":
		return header
	}
	return header + "\n\n" + movetext
}

func (u RawGameUnit) empty() bool {
	return len(u.HeaderLines) == 0 && len(u.MovetextLines) == 0
}

// Split cuts a blob of concatenated games into units. A tag pair seen after movetext starts a
// new game; a unit with headers and no movetext is still returned.
func Split(text string) []RawGameUnit {
	var (
		units      []RawGameUnit
		cur        RawGameUnit
		inMovetext bool
		// a blank line after headers with no movetext yet: the next tag pair opens a new game
		headerGap bool
	)

	flush := func() {
		cur.MovetextLines = trimBlankEdges(cur.MovetextLines)
		if !cur.empty() {
			units = append(units, cur)
		}
		cur = RawGameUnit{}
		inMovetext = false
		headerGap = false
	}

	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case IsHeaderLine(trimmed):
			if inMovetext || headerGap {
				flush()
			}
			cur.HeaderLines = append(cur.HeaderLines, trimmed)
		case trimmed == "":
			if inMovetext {
				cur.MovetextLines = append(cur.MovetextLines, "")
			} else if len(cur.HeaderLines) > 0 {
				headerGap = true
			}
		default:
			inMovetext = true
			headerGap = false
			cur.MovetextLines = append(cur.MovetextLines, strings.TrimRight(line, " \t"))
		}
	}
	flush()
	return units
}

func trimBlankEdges(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ToRecord builds a game record from a unit, filling missing headers with defaults.
func ToRecord(u RawGameUnit) models.GameRecord {
	h := ParseHeaders(u.HeaderLines)
	rec := models.GameRecord{
		Event:     h.Event,
		Site:      h.Site,
		Date:      h.Date,
		White:     h.White,
		Black:     h.Black,
		Result:    h.Result,
		ECO:       h.ECO,
		Opening:   h.Opening,
		WhiteElo:  parseElo(h.WhiteElo),
		BlackElo:  parseElo(h.BlackElo),
		PGN:       u.Text(),
		MoveCount: CountMoveNumbers(u.Movetext()),
	}
	rec.ApplyDefaults()
	return rec
}

// ParseRecords splits text and converts every unit.
func ParseRecords(text string) []models.GameRecord {
	units := Split(text)
	records := make([]models.GameRecord, 0, len(units))
	for _, u := range units {
		records = append(records, ToRecord(u))
	}
	return records
}

// CountMoveNumbers approximates the number of full moves by counting "N." tokens.
// Digits followed by a dot inside comments are counted too.
func CountMoveNumbers(movetext string) int {
	n := 0
	for _, tok := range strings.Fields(movetext) {
		i := 0
		for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
			i++
		}
		if i == 0 || i >= len(tok) || tok[i] != '.' {
			continue
		}
		if strings.HasPrefix(tok[i:], "...") {
			continue
		}
		n++
	}
	return n
}

func parseElo(v string) *int {
	elo, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || elo <= 0 {
		return nil
	}
	return &elo
}
