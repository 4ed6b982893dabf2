// Package session keeps in-progress listing forms, one per user.
package session

import (
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/spot-booking/internal/listing"
)

// Session is a user's open listing form. OwnerID is the internal user id
// resolved when the form was started.
type Session struct {
	OwnerID   int64
	State     listing.State
	UpdatedAt time.Time
}

// Store is a concurrency-safe map of sessions keyed by external user id.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]Session
	now      func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]Session),
		now:      time.Now,
	}
}

// Put stores sess for externalID and stamps UpdatedAt. Starting a new form
// replaces any previous one.
func (s *Store) Put(externalID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedAt = s.now()
	s.sessions[externalID] = sess
}

// Take removes and returns the session for externalID. A caller that took a
// session owns it until it puts it back.
func (s *Store) Take(externalID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[externalID]
	if ok {
		delete(s.sessions, externalID)
	}
	return sess, ok
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions not updated within ttl of now and returns how many
// were removed.
func (s *Store) Sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
