package models

import (
	"sort"
	"strings"
	"time"
)

// Header defaults applied when a game omits the tag.
const (
	DefaultPlayer = "Unknown"
	DefaultEvent  = "Unknown"
	DefaultSite   = "Unknown"
	DefaultDate   = "????.??.??"
	DefaultResult = "*"
)

type GameRecord struct {
	ID        int64     `json:"id,omitempty"`
	Event     string    `json:"event"`
	Site      string    `json:"site"`
	Date      string    `json:"date"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Result    string    `json:"result"`
	ECO       string    `json:"eco"`
	Opening   string    `json:"opening"`
	WhiteElo  *int      `json:"whiteElo,omitempty"`
	BlackElo  *int      `json:"blackElo,omitempty"`
	PGN       string    `json:"pgn"`
	Tags      []string  `json:"tags"`
	Notes     string    `json:"notes"`
	MoveCount int       `json:"moveCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplyDefaults fills empty header fields and normalizes tags.
func (g *GameRecord) ApplyDefaults() {
	if g.Event == "" {
		g.Event = DefaultEvent
	}
	if g.Site == "" {
		g.Site = DefaultSite
	}
	if g.Date == "" {
		g.Date = DefaultDate
	}
	if g.White == "" {
		g.White = DefaultPlayer
	}
	if g.Black == "" {
		g.Black = DefaultPlayer
	}
	if g.Result == "" {
		g.Result = DefaultResult
	}
	g.Tags = NormalizeTags(g.Tags)
}

// NormalizeTags trims, drops empties and deduplicates while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// StorageBytes approximates the space a record occupies in a backend.
func (g GameRecord) StorageBytes() int64 {
	return int64(len(g.PGN) + len(g.Notes))
}

type GameFilter struct {
	SearchText string // matches White or Black, case-insensitive
	Opening    string
	DateFrom   string // inclusive, PGN date format
	DateTo     string // inclusive, PGN date format
	Result     string
	Tags       []string // any-of
	Limit      int
	Offset     int
	OrderDir   string
}

// Matches applies the filter in memory. Used by backends that cannot filter server-side.
func (f GameFilter) Matches(g GameRecord) bool {
	if f.SearchText != "" {
		q := strings.ToLower(f.SearchText)
		if !strings.Contains(strings.ToLower(g.White), q) && !strings.Contains(strings.ToLower(g.Black), q) {
			return false
		}
	}
	if f.Opening != "" && g.Opening != f.Opening {
		return false
	}
	if f.DateFrom != "" && g.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && g.Date > f.DateTo {
		return false
	}
	if f.Result != "" && g.Result != f.Result {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, have := range g.Tags {
				if want == have {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// StorageInfo reports backend usage against its limit.
type StorageInfo struct {
	UsedBytes  int64 `json:"usedBytes"`
	MaxBytes   int64 `json:"maxBytes"`
	Percentage int   `json:"percentage"`
}

// NewStorageInfo computes the rounded usage percentage.
func NewStorageInfo(used, max int64) StorageInfo {
	info := StorageInfo{UsedBytes: used, MaxBytes: max}
	if max > 0 {
		info.Percentage = int((used*100 + max/2) / max)
	}
	return info
}

// UniqueSorted returns the distinct non-empty values in ascending order.
func UniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
