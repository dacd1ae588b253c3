package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: sign-in modes and the persisted session
//   - backend.go: which collaborators back accounts and profiles
//   - database.go: Postgres and Redis connections
//   - http.go: HTTP server configuration
//   - logging.go: log level and handler format
//   - instances.go: per-browser instance lifetime and picture uploads
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, caching, etc.)
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Log LogConfig

	// Authentication configuration
	Auth AuthConfig

	// Collaborator backend configuration
	Backend  BackendConfig
	Sessions SessionsConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	Instances InstancesConfig
	Upload    UploadConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Backend.Sanitize()
	c.Instances.Sanitize()
	c.Upload.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// Validate reports combinations that cannot start. Call it after Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Backend.Mode == BackendModeRemote && c.Backend.Remote.BaseURL == "" {
		errs = append(errs, errors.New("BACKEND_MODE=remote requires BACKEND_REMOTE_BASE_URL"))
	}
	if c.Auth.Mode == AuthModeOAuth {
		o := c.Auth.OAuth
		if o.DiscoveryURL == "" || o.ClientID == "" || o.ClientSecret == "" {
			errs = append(errs, errors.New("AUTH_MODE=oauth requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET"))
		}
	}
	if c.Auth.Mode == AuthModeMock && !c.IsDev {
		errs = append(errs, errors.New("AUTH_MODE=mock is only allowed with DEV=true"))
	}
	if c.Auth.SSOEnabled() && c.Auth.CookieKey == "" && !c.IsDev {
		errs = append(errs, fmt.Errorf("AUTH_MODE=%s requires AUTH_COOKIE_KEY", c.Auth.Mode))
	}
	return errors.Join(errs...)
}

// NeedsPostgres reports whether any component reads from Postgres.
func (c *AppConfig) NeedsPostgres() bool {
	return c.Backend.Mode == BackendModePostgres
}

// NeedsRedis reports whether any component reads from Redis.
func (c *AppConfig) NeedsRedis() bool {
	return c.Sessions.Store == SessionStoreRedis
}
