package session

import (
	"context"
	"sync"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/auth/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
)

// InMemory is a map-backed session store for unit tests and single-process
// development runs. Expiry is checked on read.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = clone(session)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.Expired(time.Now()) {
		return nil, sentinel.ErrNotFound
	}
	return clone(session), nil
}

func (s *InMemory) Touch(_ context.Context, sessionID id.SessionID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.Expired(now) {
		return sentinel.ErrNotFound
	}
	session.LastSeenAt = now
	return nil
}

func (s *InMemory) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	var sessions []*models.Session
	for _, session := range s.sessions {
		if session.UserID == userID && !session.Expired(now) {
			sessions = append(sessions, clone(session))
		}
	}
	return sessions, nil
}

func (s *InMemory) DeleteAllForUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sessionID, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, sessionID)
		}
	}
	return nil
}

func clone(session *models.Session) *models.Session {
	copied := *session
	return &copied
}
