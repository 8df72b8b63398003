package api

import (
	"sync"

	"github.com/sells-group/locality-intel/internal/report"
)

// Sessions is a bounded registry of report sessions keyed by client id. When
// full, the least recently used session is dropped.
type Sessions struct {
	assembler *report.Assembler
	max       int

	mu    sync.Mutex
	items map[string]*report.Session
	order []string // front=oldest
}

// NewSessions creates a registry holding at most max sessions.
func NewSessions(a *report.Assembler, max int) *Sessions {
	if max <= 0 {
		max = 1024
	}
	return &Sessions{assembler: a, max: max, items: make(map[string]*report.Session)}
}

// Get returns the session for id, creating it if needed.
func (s *Sessions) Get(id string) *report.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.items[id]; ok {
		s.touch(id)
		return sess
	}

	for len(s.items) >= s.max && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}

	sess := report.NewSession(s.assembler)
	s.items[id] = sess
	s.order = append(s.order, id)
	return sess
}

// Lookup returns the session for id without creating it.
func (s *Sessions) Lookup(id string) (*report.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if ok {
		s.touch(id)
	}
	return sess, ok
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Sessions) touch(id string) {
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, id)
}
