// Package session holds the per-instance record of who is signed in.
// It is pure and free of transport concerns; route guards and screens read it.
package session

import (
	"sync"

	"github.com/target/onboard-ui/internal/domain/observe"
)

// DefaultAvatarPath is rendered when a user has not uploaded a picture yet.
const DefaultAvatarPath = "/static/img/avatar-default.svg"

// User is the identity attached to a signed-in session.
// Username and AvatarSrc are optional and filled in by profile setup.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	AvatarSrc string `json:"avatar_src,omitempty"`
}

// DisplayName returns the username, or a neutral label when none is claimed yet.
func (u *User) DisplayName() string {
	if u == nil || u.Username == "" {
		return "Profile"
	}
	return u.Username
}

// AvatarURL returns the avatar source or the default avatar.
func (u *User) AvatarURL() string {
	if u == nil || u.AvatarSrc == "" {
		return DefaultAvatarPath
	}
	return u.AvatarSrc
}

// Clone returns an independent copy of u (nil stays nil).
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Session is the value held by a Store. A nil User means signed out.
type Session struct {
	User *User
}

// SignedIn reports whether the session carries a user.
func (s Session) SignedIn() bool { return s.User != nil }

// Store is the single source of truth for "who is signed in" within one application instance.
// Set replaces the whole value; readers always receive their own copy.
type Store struct {
	mu        sync.Mutex
	current   *User
	listeners observe.Listeners[Session]
}

// NewStore returns an empty (signed-out) store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current session.
func (s *Store) Get() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{User: s.current.Clone()}
}

// Set replaces the session value. Passing nil signs the session out.
// Listeners run synchronously once the new value is visible.
func (s *Store) Set(u *User) {
	s.mu.Lock()
	s.current = u.Clone()
	snapshot := s.current.Clone()
	s.mu.Unlock()

	s.listeners.Notify(Session{User: snapshot})
}

// Clear signs the session out.
func (s *Store) Clear() { s.Set(nil) }

// Subscribe registers fn for change notifications and returns a function that removes it.
// Listeners must treat the received session as read-only.
func (s *Store) Subscribe(fn func(Session)) func() {
	return s.listeners.Add(fn)
}
