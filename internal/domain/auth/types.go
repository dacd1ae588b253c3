// Package auth contains domain-level types for authentication and persisted sign-in.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 8

// Credentials are what a user types on the sign-in and sign-up screens.
type Credentials struct {
	Email    string
	Password string
}

// Normalized returns c with the email trimmed and lower-cased.
func (c Credentials) Normalized() Credentials {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

// FieldErrors maps form field names to a message.
type FieldErrors map[string]string

// Validate checks credential syntax. An empty result means valid.
// forSignUp additionally enforces the password length rule.
func (c Credentials) Validate(forSignUp bool) FieldErrors {
	errs := FieldErrors{}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		errs["email"] = "Email is required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "Enter a valid email address"
	}
	switch {
	case c.Password == "":
		errs["password"] = "Password is required"
	case forSignUp && utf8.RuneCountInString(c.Password) < MinPasswordLength:
		errs["password"] = "Password must be at least 8 characters"
	}
	return errs
}

// Result is the auth collaborator's answer to sign-in and sign-up.
// Success=false is an expected failure (bad credentials); Message may explain it.
type Result struct {
	Success bool
	UserID  string
	Message string
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable subject from the IdP
	Email     string
	Name      string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for a signed-in user.
// ID is an opaque session identifier carried in the session cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username,omitempty"`
	AvatarSrc string    `json:"avatar_src,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
