// Package state holds the single authoritative "current clipboard" record.
package state

import (
	"sync"
	"time"

	"go.klb.dev/cliprelay/internal/update"
)

// Store owns the current clipboard. Writes replace the record wholesale; no
// partial merge is supported. Reads return a consistent snapshot and never
// observe a half-applied update.
type Store struct {
	mu   sync.RWMutex
	cur  update.Update
	last int64 // last stamped timestamp, milliseconds
}

// New returns a Store holding the empty boot state.
func New() *Store {
	now := time.Now().UnixMilli()
	return &Store{
		cur: update.Update{
			Formats:   map[string]any{},
			Source:    update.SourceUnknown,
			Timestamp: now,
		},
		last: now,
	}
}

// Set replaces the current clipboard with u, stamping a relay-assigned
// timestamp strictly greater than the previous one. The input's own
// timestamp is ignored.
func (s *Store) Set(u *update.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UnixMilli()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts

	s.cur = update.Update{
		Formats:   u.Formats,
		Source:    u.Source,
		Timestamp: ts,
	}
	u.Timestamp = ts
}

// Get returns the current clipboard snapshot.
func (s *Store) Get() update.Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}
