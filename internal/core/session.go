package core

import (
	"sync"
	"time"
)

// Session owns at most one active table. All access goes through the
// session mutex, so operations on one table never overlap.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	table    *Table
	source   string
	loadedAt time.Time
}

func newSession(id string) *Session {
	return &Session{ID: id, CreatedAt: time.Now()}
}

// SessionInfo is a snapshot of a session for display.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Source    string    `json:"source,omitempty"`
	LoadedAt  time.Time `json:"loadedAt,omitzero"`
	Loaded    bool      `json:"loaded"`
}

func (s *Session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Source:    s.source,
		LoadedAt:  s.loadedAt,
		Loaded:    s.table != nil,
	}
}

// replace swaps in a freshly loaded table. The previous table is discarded.
func (s *Session) replace(t *Table, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.source = source
	s.loadedAt = time.Now()
}

// withTable runs fn on the active table under the session lock.
func (s *Session) withTable(fn func(t *Table) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return ErrNoData
	}
	return fn(s.table)
}
