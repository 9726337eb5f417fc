package opening

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vytor/pgnbase/internal/errors"
)

// Source is the provenance of a lookup result.
type Source string

const (
	SourceTree   Source = "tree"
	SourceECO    Source = "eco"
	SourceHeader Source = "pgn-header"
)

// HeaderHint carries the Opening and ECO tags of a game for the last-resort fallback.
type HeaderHint struct {
	Opening string `json:"opening"`
	ECO     string `json:"eco"`
}

// LookupResult is a classified opening.
type LookupResult struct {
	Name   string `json:"name"`
	ECO    string `json:"eco"`
	Source Source `json:"source"`
}

// Editable reports whether the name is backed by the writable tree.
func (r LookupResult) Editable() bool {
	return r.Source == SourceTree
}

// TreeSource is the remote opening tree as seen by the resolver.
type TreeSource interface {
	Cached() *MoveNode
	Load(ctx context.Context) (*MoveNode, error)
	SaveName(ctx context.Context, moves []string, name string) (*MoveNode, error)
	Invalidate()
	Status() TreeStatus
}

// Status summarizes the resolver's data sources.
type Status struct {
	Tree       TreeStatus `json:"tree"`
	IndexSize  int        `json:"indexSize"`
	Generation uint64     `json:"generation"`
}

// Resolver classifies move sequences: tree name first, then the static index, then the
// game's own header. Any write or reload bumps the generation so cursors never serve results
// computed against an older tree.
type Resolver struct {
	index *Index
	tree  TreeSource
	gen   atomic.Uint64
}

// NewResolver builds a resolver. tree may be nil to run on the static index only.
func NewResolver(index *Index, tree TreeSource) *Resolver {
	return &Resolver{index: index, tree: tree}
}

// prefixLen converts an inclusive ply index into a prefix length within moves.
func prefixLen(moves []string, upToIndex int) int {
	n := upToIndex + 1
	if n < 0 {
		return 0
	}
	if n > len(moves) {
		return len(moves)
	}
	return n
}

// Lookup classifies moves[:upToIndex+1]. An upToIndex of -1 is the initial position, where
// only the header can answer. nil means the opening is unknown.
func (r *Resolver) Lookup(moves []string, upToIndex int, header *HeaderHint) *LookupResult {
	n := prefixLen(moves, upToIndex)

	if n > 0 {
		if r.tree != nil {
			if root := r.tree.Cached(); root != nil {
				if hit := Traverse(root, moves, n); hit != nil {
					res := &LookupResult{Name: hit.Name, Source: SourceTree}
					if m := r.index.Lookup(moves, n); m != nil {
						res.ECO = m.ECO
					}
					return res
				}
			}
		}
		if m := r.index.Lookup(moves, n); m != nil {
			return &LookupResult{Name: m.Name, ECO: m.ECO, Source: SourceECO}
		}
	}

	if header != nil && strings.TrimSpace(header.Opening) != "" {
		return &LookupResult{Name: header.Opening, ECO: header.ECO, Source: SourceHeader}
	}
	return nil
}

// LookupForGame classifies the complete move sequence.
func (r *Resolver) LookupForGame(moves []string, header *HeaderHint) *LookupResult {
	return r.Lookup(moves, len(moves)-1, header)
}

// SaveName writes a tree name for the position reached by moves and refreshes the cache.
func (r *Resolver) SaveName(ctx context.Context, moves []string, name string) (*LookupResult, error) {
	if r.tree == nil {
		return nil, errUnavailable()
	}
	defer r.gen.Add(1)

	if _, err := r.tree.SaveName(ctx, moves, name); err != nil {
		return nil, err
	}
	return r.Lookup(moves, len(moves)-1, nil), nil
}

// Reload fetches the tree again. A failure leaves the resolver on the static index.
func (r *Resolver) Reload(ctx context.Context) error {
	if r.tree == nil {
		return errUnavailable()
	}
	defer r.gen.Add(1)
	_, err := r.tree.Load(ctx)
	return err
}

// Invalidate drops the cached tree.
func (r *Resolver) Invalidate() {
	if r.tree != nil {
		r.tree.Invalidate()
	}
	r.gen.Add(1)
}

// Generation changes whenever tree-backed results may have changed.
func (r *Resolver) Generation() uint64 {
	return r.gen.Load()
}

func (r *Resolver) Status() Status {
	st := Status{IndexSize: r.index.Len(), Generation: r.Generation()}
	if r.tree != nil {
		st.Tree = r.tree.Status()
	}
	return st
}

// Cursor remembers the last lookup of one navigating client and skips recomputation while
// the prefix, header and resolver generation stay the same.
type Cursor struct {
	resolver *Resolver

	mu     sync.Mutex
	valid  bool
	key    string
	gen    uint64
	result *LookupResult
}

func (r *Resolver) NewCursor() *Cursor {
	return &Cursor{resolver: r}
}

// Lookup behaves like Resolver.Lookup. cached reports whether the previous result was reused.
func (c *Cursor) Lookup(moves []string, upToIndex int, header *HeaderHint) (result *LookupResult, cached bool) {
	key := lookupKey(moves, upToIndex, header)
	gen := c.resolver.Generation()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.key == key && c.gen == gen {
		return c.result, true
	}
	c.result = c.resolver.Lookup(moves, upToIndex, header)
	c.key = key
	c.gen = gen
	c.valid = true
	return c.result, false
}

// Reset forgets the remembered result.
func (c *Cursor) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.result = nil
}

func errUnavailable() error {
	return errors.NewUnavailableError(treeService, nil)
}

func lookupKey(moves []string, upToIndex int, header *HeaderHint) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(moves[:prefixLen(moves, upToIndex)], ","))
	if header != nil {
		sb.WriteString("|")
		sb.WriteString(header.Opening)
		sb.WriteString("|")
		sb.WriteString(header.ECO)
	}
	return sb.String()
}
