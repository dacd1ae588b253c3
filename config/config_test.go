package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func parseEnv(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parseEnv(t, map[string]string{})
	cfg.Sanitize()

	if cfg.Auth.Mode != AuthModeLocal {
		t.Errorf("auth mode = %q, want local", cfg.Auth.Mode)
	}
	if cfg.Auth.SSOEnabled() {
		t.Errorf("SSO should be off in local mode")
	}
	if cfg.Backend.Mode != BackendModePostgres || !cfg.NeedsPostgres() {
		t.Errorf("backend mode = %q, want postgres", cfg.Backend.Mode)
	}
	if cfg.Sessions.Store != SessionStoreRedis || !cfg.NeedsRedis() {
		t.Errorf("session store = %q, want redis", cfg.Sessions.Store)
	}
	if cfg.Instances.IdleTTL != 2*time.Hour || cfg.Instances.SweepInterval != time.Minute || cfg.Instances.StagingLimit != 2 {
		t.Errorf("unexpected instance defaults: %+v", cfg.Instances)
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Errorf("upload max bytes = %d", cfg.Upload.MaxBytes)
	}
	if cfg.Redis.KeyPrefix != "onboard:session:" {
		t.Errorf("redis key prefix = %q", cfg.Redis.KeyPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	cfg := parseEnv(t, map[string]string{
		"AUTH_MODE":           "OAuth",
		"OAUTH_CLIENT_ID":     "app-client",
		"OAUTH_CLIENT_SECRET": "super-secret",
		"OAUTH_REDIRECT_URL":  "https://app.example.com/auth/sso/callback",
		"OAUTH_DISCOVERY_URL": "https://login.example.com/.well-known/openid-configuration",
		"OAUTH_SCOPE":         "openid email",
		"DEV_AUTH_USER_ID":    "dev-user",
		"DEV_AUTH_EMAIL":      "dev@example.com",
		"AUTH_SESSION_TTL":    "8h",
		"AUTH_COOKIE_KEY":     "passphrase",
		"AUTH_BCRYPT_COST":    "10",
	})

	expected := AuthConfig{
		Mode: AuthModeOAuth,
		OAuth: OAuthConfig{
			ClientID:     "app-client",
			ClientSecret: "super-secret",
			RedirectURL:  "https://app.example.com/auth/sso/callback",
			Scope:        "openid email",
			DiscoveryURL: "https://login.example.com/.well-known/openid-configuration",
		},
		DevAuth: DevAuthConfig{
			UserID: "dev-user",
			Email:  "dev@example.com",
			Name:   "Dev User",
		},
		SessionTTL: 8 * time.Hour,
		CookieKey:  "passphrase",
		BcryptCost: 10,
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAppConfig_ParseBackendEnv(t *testing.T) {
	cfg := parseEnv(t, map[string]string{
		"BACKEND_MODE":                     "remote",
		"BACKEND_REMOTE_BASE_URL":          " https://profiles.example.com/api ",
		"BACKEND_REMOTE_TIMEOUT":           "3s",
		"BACKEND_REMOTE_EXPR_IS_AVAILABLE": "result.free",
		"SESSION_STORE":                    "memory",
	})
	cfg.Sanitize()

	if cfg.Backend.Mode != BackendModeRemote || cfg.Backend.ServesAvatars() {
		t.Fatalf("unexpected backend: %+v", cfg.Backend)
	}
	if cfg.Backend.Remote.BaseURL != "https://profiles.example.com/api" {
		t.Errorf("base URL not trimmed: %q", cfg.Backend.Remote.BaseURL)
	}
	if cfg.Backend.Remote.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Backend.Remote.Timeout)
	}
	if cfg.Backend.Remote.Expressions.IsAvailable != "result.free" || cfg.Backend.Remote.Expressions.Success != "" {
		t.Errorf("unexpected expressions: %+v", cfg.Backend.Remote.Expressions)
	}
	if cfg.NeedsPostgres() || cfg.NeedsRedis() {
		t.Errorf("remote backend with memory sessions needs no infrastructure")
	}
}

func TestAppConfig_ParseRejectsUnknownModes(t *testing.T) {
	for _, vars := range []map[string]string{
		{"AUTH_MODE": "saml"},
		{"BACKEND_MODE": "sqlite"},
		{"SESSION_STORE": "memcached"},
	} {
		var cfg AppConfig
		if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err == nil {
			t.Errorf("expected parse error for %v", vars)
		}
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{
			name:    "remote without base URL",
			mutate:  func(c *AppConfig) { c.Backend.Mode = BackendModeRemote },
			wantErr: "BACKEND_REMOTE_BASE_URL",
		},
		{
			name:    "oauth without client",
			mutate:  func(c *AppConfig) { c.Auth.Mode = AuthModeOAuth; c.Auth.CookieKey = "k" },
			wantErr: "OAUTH_CLIENT_ID",
		},
		{
			name:    "mock outside dev",
			mutate:  func(c *AppConfig) { c.Auth.Mode = AuthModeMock; c.Auth.CookieKey = "k" },
			wantErr: "DEV=true",
		},
		{
			name: "sso without cookie key",
			mutate: func(c *AppConfig) {
				c.Auth.Mode = AuthModeOAuth
				c.Auth.OAuth = OAuthConfig{ClientID: "c", ClientSecret: "s", DiscoveryURL: "https://idp"}
			},
			wantErr: "AUTH_COOKIE_KEY",
		},
		{
			name: "mock in dev",
			mutate: func(c *AppConfig) {
				c.IsDev = true
				c.Auth.Mode = AuthModeMock
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parseEnv(t, map[string]string{})
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInstancesConfig_Sanitize(t *testing.T) {
	cfg := InstancesConfig{IdleTTL: 30 * time.Second, SweepInterval: time.Minute, StagingLimit: 0}
	cfg.Sanitize()

	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("sweep interval should not exceed idle TTL, got %v", cfg.SweepInterval)
	}
	if cfg.StagingLimit != 2 {
		t.Errorf("staging limit = %d, want 2", cfg.StagingLimit)
	}
}

func TestUploadConfig_Sanitize(t *testing.T) {
	cfg := UploadConfig{MaxBytes: -1, AvatarSize: 8000, JPEGQuality: 0}
	cfg.Sanitize()

	if cfg.MaxBytes != 10<<20 || cfg.AvatarSize != 2048 || cfg.JPEGQuality != 85 {
		t.Fatalf("unexpected sanitized upload config: %+v", cfg)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{CompressionLevel: 12}
	cfg.Sanitize()
	if cfg.CompressionLevel != 9 || cfg.Addr != ":8080" || cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("unexpected sanitized http config: %+v", cfg)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.Prefix != "onboard" {
		t.Fatalf("expected default prefix, got %q", cfg.Prefix)
	}
	if cfg.FlushInterval != 100*time.Millisecond {
		t.Fatalf("expected flush interval clamped to 100ms, got %s", cfg.FlushInterval)
	}
}

func TestObservabilityMetricsConfig_Env(t *testing.T) {
	cfg := parseEnv(t, map[string]string{
		"OBSERVABILITY_METRICS_ENABLED":        "true",
		"OBSERVABILITY_METRICS_PREFIX":         ".web.onboard.",
		"OBSERVABILITY_METRICS_FLUSH_INTERVAL": "250ms",
		"OBSERVABILITY_METRICS_TAGS":           "env:prod,region:us-east",
	})
	cfg.Sanitize()

	m := cfg.Observability.Metrics
	if !m.IsEnabled() || m.StatsdAddress != "127.0.0.1:8125" {
		t.Fatalf("unexpected metrics config: %+v", m)
	}
	if m.Prefix != "web.onboard" || m.FlushInterval != 250*time.Millisecond {
		t.Fatalf("unexpected prefix/interval: %q %s", m.Prefix, m.FlushInterval)
	}
	if !reflect.DeepEqual(m.Tags, map[string]string{"env": "prod", "region": "us-east"}) {
		t.Fatalf("unexpected tags: %v", m.Tags)
	}
}
