package opening

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed data/eco.json
var embeddedCorpus []byte

// EcoEntry is one named line of the static opening corpus.
type EcoEntry struct {
	ECO   string   `json:"eco"`
	Name  string   `json:"name"`
	Moves []string `json:"moves"`
}

// Match is an index hit. Depth is the number of plies that matched.
type Match struct {
	ECO   string `json:"eco"`
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

type indexEntry struct {
	eco  string
	name string
}

// Index is a longest-prefix classifier over SAN move sequences. It is immutable after
// construction and safe for concurrent use.
type Index struct {
	byKey    map[string]indexEntry
	maxDepth int
}

// NewIndex builds an index. Entries are ordered by descending move count (stable), and the
// first entry seen for a move sequence wins.
func NewIndex(entries []EcoEntry) *Index {
	sorted := make([]EcoEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Moves) > len(sorted[j].Moves)
	})

	ix := &Index{byKey: make(map[string]indexEntry, len(sorted))}
	for _, e := range sorted {
		if len(e.Moves) == 0 {
			continue
		}
		key := strings.Join(e.Moves, " ")
		if _, exists := ix.byKey[key]; exists {
			continue
		}
		ix.byKey[key] = indexEntry{eco: e.ECO, name: e.Name}
		if len(e.Moves) > ix.maxDepth {
			ix.maxDepth = len(e.Moves)
		}
	}
	return ix
}

// ParseCorpus decodes a JSON array of entries.
func ParseCorpus(r io.Reader) ([]EcoEntry, error) {
	var entries []EcoEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode eco corpus: %w", err)
	}
	return entries, nil
}

// DefaultIndex builds the index from the bundled corpus.
func DefaultIndex() (*Index, error) {
	entries, err := ParseCorpus(bytes.NewReader(embeddedCorpus))
	if err != nil {
		return nil, err
	}
	return NewIndex(entries), nil
}

// LoadIndex builds the index from a corpus file, or from the bundled corpus when path is empty.
func LoadIndex(path string) (*Index, error) {
	if path == "" {
		return DefaultIndex()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open eco corpus: %w", err)
	}
	defer f.Close()

	entries, err := ParseCorpus(f)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries), nil
}

// Len returns the number of distinct move sequences indexed.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.byKey)
}

// Lookup returns the longest indexed prefix of moves[:length], or nil. A length of zero or
// less, or beyond len(moves), means the whole sequence.
func (ix *Index) Lookup(moves []string, length int) *Match {
	if ix == nil {
		return nil
	}
	if length <= 0 || length > len(moves) {
		length = len(moves)
	}
	if length > ix.maxDepth {
		length = ix.maxDepth
	}
	for n := length; n >= 1; n-- {
		if e, ok := ix.byKey[strings.Join(moves[:n], " ")]; ok {
			return &Match{ECO: e.eco, Name: e.name, Depth: n}
		}
	}
	return nil
}
