package opening

import (
	"sync"
)

// Sessions hands out one Cursor per client session, evicting the least recently used session
// once max is exceeded.
type Sessions struct {
	resolver *Resolver
	max      int

	mu      sync.Mutex
	clock   uint64
	cursors map[string]*sessionCursor
}

type sessionCursor struct {
	cursor   *Cursor
	lastUsed uint64
}

func NewSessions(resolver *Resolver, max int) *Sessions {
	if max <= 0 {
		max = 256
	}
	return &Sessions{
		resolver: resolver,
		max:      max,
		cursors:  make(map[string]*sessionCursor),
	}
}

// Cursor returns the cursor for id, creating it when needed.
func (s *Sessions) Cursor(id string) *Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock++
	if sc, ok := s.cursors[id]; ok {
		sc.lastUsed = s.clock
		return sc.cursor
	}
	if len(s.cursors) >= s.max {
		s.evictOldest()
	}
	sc := &sessionCursor{cursor: s.resolver.NewCursor(), lastUsed: s.clock}
	s.cursors[id] = sc
	return sc.cursor
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cursors)
}

func (s *Sessions) evictOldest() {
	var (
		oldestID string
		oldest   uint64
		found    bool
	)
	for id, sc := range s.cursors {
		if !found || sc.lastUsed < oldest {
			oldestID, oldest, found = id, sc.lastUsed, true
		}
	}
	delete(s.cursors, oldestID)
}
