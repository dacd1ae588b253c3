package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	"github.com/target/onboard-ui/internal/ports"
)

var _ ports.SessionStore = (*Sessions)(nil)

// Sessions is a process-local persisted sign-in store, used when Redis is not configured.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]domainauth.Session
	now  func() time.Time
}

// NewSessions returns an empty store.
func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]domainauth.Session), now: time.Now}
}

func (s *Sessions) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sess.ID] = sess
	return nil
}

func (s *Sessions) Get(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.byID, id)
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (s *Sessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

// Prune drops expired sessions and returns how many were removed.
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sess := range s.byID {
		if sess.Expired(now) {
			delete(s.byID, id)
			n++
		}
	}
	return n
}
