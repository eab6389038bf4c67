package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	"github.com/Apurer/pet-portal/internal/domains/accounts/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps portal sessions in process memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]domain.Session{}}
}

func (s *SessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *SessionStore) Get(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *SessionStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			purged++
		}
	}
	return purged, nil
}
