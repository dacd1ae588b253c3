// Package profile contains the profile record and the username rules.
package profile

import (
	"regexp"
	"strings"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 20
)

var usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9_.]*$`)

// Profile is the public profile attached to an account.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	AvatarSrc string `json:"avatar_src,omitempty"`
}

// HasUsername reports whether a username has been claimed.
func (p Profile) HasUsername() bool { return p.Username != "" }

// HasPicture reports whether a profile picture has been set.
func (p Profile) HasPicture() bool { return p.AvatarSrc != "" }

// UsernameAvailability is the answer to an availability check.
type UsernameAvailability struct {
	Username    string `json:"username"`
	IsAvailable bool   `json:"isAvailable"`
}

// Picture is a stored profile picture.
type Picture struct {
	Src string `json:"src"`
}

// Avatar is the stored bytes behind a picture source.
type Avatar struct {
	Data        []byte
	ContentType string
}

// SetUsernameInput groups the arguments of a username claim.
type SetUsernameInput struct {
	ProfileID string
	Username  string
}

// SetProfilePictureInput groups the arguments of a picture upload.
// Image holds the encoded bytes.
type SetProfilePictureInput struct {
	ProfileID   string
	Image       []byte
	ContentType string
}

// NormalizeUsername trims and lower-cases a username as typed.
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateUsername returns a user-facing message when name breaks the username
// rules, or "" when it is acceptable. name is expected to be normalized.
func ValidateUsername(name string) string {
	switch {
	case name == "":
		return "Username is required"
	case len(name) < UsernameMinLength:
		return "Username must be at least 3 characters"
	case len(name) > UsernameMaxLength:
		return "Username must be at most 20 characters"
	case !usernamePattern.MatchString(name):
		return "Use lowercase letters, numbers, dots and underscores, starting with a letter"
	}
	return ""
}
