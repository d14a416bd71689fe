package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sebspolo/scrobble-guessr/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions hold the fetched dataset and their subscribers, so they stay in
// a local map; Redis only marks which sessions are alive on which instance.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(sessionID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return session
	}
	session := app.NewSession(sessionID)
	s.sessions[sessionID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), SessionKey(sessionID), "1", s.ttl).Err()
	return session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), SessionKey(sessionID), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) DeleteIfUnwatched(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	if !session.HasSubscribers() {
		delete(s.sessions, sessionID)
		_ = s.client.Del(context.Background(), SessionKey(sessionID)).Err()
	}
}

// SessionKey is the liveness key of a session.
func SessionKey(sessionID string) string {
	return "scrobble:session:" + sessionID
}
