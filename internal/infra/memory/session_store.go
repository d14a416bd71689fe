package memory

import (
	"sync"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Like the Redis liveness keys, every access refreshes a session's TTL;
// sessions idle past it with nobody subscribed are dropped. A zero TTL
// keeps sessions until DeleteIfUnwatched.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]*storedSession
}

type storedSession struct {
	session  *app.Session
	lastSeen time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]*storedSession),
	}
}

func (s *SessionStore) GetOrCreate(sessionID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	s.sweepLocked(now)
	if stored, ok := s.sessions[sessionID]; ok {
		stored.lastSeen = now
		return stored.session
	}
	session := app.NewSession(sessionID)
	s.sessions[sessionID] = &storedSession{session: session, lastSeen: now}
	return session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	now := s.clock()
	if s.expiredLocked(stored, now) {
		delete(s.sessions, sessionID)
		return nil, false
	}
	stored.lastSeen = now
	return stored.session, true
}

func (s *SessionStore) DeleteIfUnwatched(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	if !stored.session.HasSubscribers() {
		delete(s.sessions, sessionID)
	}
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) sweepLocked(now time.Time) {
	for id, stored := range s.sessions {
		if s.expiredLocked(stored, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) expiredLocked(stored *storedSession, now time.Time) bool {
	if s.ttl <= 0 || stored.session.HasSubscribers() {
		return false
	}
	return now.Sub(stored.lastSeen) > s.ttl
}
