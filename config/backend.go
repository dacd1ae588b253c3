package config

import (
	"fmt"
	"strings"
	"time"
)

// BackendMode selects where accounts and profiles live.
type BackendMode string

const (
	// BackendModeMemory keeps everything in process (development and tests).
	BackendModeMemory BackendMode = "memory"
	// BackendModePostgres stores accounts and profiles in Postgres.
	BackendModePostgres BackendMode = "postgres"
	// BackendModeRemote calls an external auth/profile API.
	BackendModeRemote BackendMode = "remote"
)

// UnmarshalText implements encoding.TextUnmarshaler for BackendMode.
func (m *BackendMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "postgres", "remote":
		*m = BackendMode(v)
		return nil
	default:
		return fmt.Errorf("invalid BackendMode: %q (valid options: memory, postgres, remote)", v)
	}
}

// RemoteExpressions override the JMESPath expressions used to read remote envelopes.
// Empty values keep the adapter defaults.
type RemoteExpressions struct {
	Success     string `env:"SUCCESS"`
	Message     string `env:"MESSAGE"`
	Code        string `env:"CODE"`
	UserID      string `env:"USER_ID"`
	ProfileID   string `env:"PROFILE_ID"`
	Username    string `env:"USERNAME"`
	AvatarSrc   string `env:"AVATAR_SRC"`
	IsAvailable string `env:"IS_AVAILABLE"`
	PictureSrc  string `env:"PICTURE_SRC"`
}

// RemoteConfig points at the external auth/profile API.
type RemoteConfig struct {
	BaseURL     string            `env:"BASE_URL"`
	APIKey      string            `env:"API_KEY"`
	Timeout     time.Duration     `env:"TIMEOUT"  envDefault:"10s"`
	Expressions RemoteExpressions `                                envPrefix:"EXPR_"`
}

// BackendConfig selects and configures the account and profile collaborators.
type BackendConfig struct {
	Mode   BackendMode  `env:"BACKEND_MODE" envDefault:"postgres"`
	Remote RemoteConfig `                                         envPrefix:"BACKEND_REMOTE_"`
	// AvatarBase prefixes stored picture sources served by this process.
	AvatarBase string `env:"BACKEND_AVATAR_BASE" envDefault:"/media/avatars/"`
}

// Sanitize normalises backend values.
func (c *BackendConfig) Sanitize() {
	if c.Mode == "" {
		c.Mode = BackendModePostgres
	}
	c.Remote.BaseURL = strings.TrimSpace(c.Remote.BaseURL)
	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = 10 * time.Second
	}
	if c.AvatarBase = strings.TrimSpace(c.AvatarBase); c.AvatarBase == "" {
		c.AvatarBase = "/media/avatars/"
	}
}

// ServesAvatars reports whether pictures are stored locally and served under AvatarBase.
func (c *BackendConfig) ServesAvatars() bool {
	return c.Mode != BackendModeRemote
}

// SessionStore selects where persisted sign-ins live.
type SessionStore string

const (
	SessionStoreMemory SessionStore = "memory"
	SessionStoreRedis  SessionStore = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStore.
func (s *SessionStore) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*s = SessionStore(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStore: %q (valid options: memory, redis)", v)
	}
}

// SessionsConfig configures persisted sign-ins.
type SessionsConfig struct {
	Store SessionStore `env:"SESSION_STORE" envDefault:"redis"`
}
