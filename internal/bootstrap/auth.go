package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/onboard-ui/config"
	"github.com/target/onboard-ui/internal/adapters/devauth"
	"github.com/target/onboard-ui/internal/adapters/memory"
	"github.com/target/onboard-ui/internal/adapters/oidc"
	redisadapter "github.com/target/onboard-ui/internal/adapters/redis"
	"github.com/target/onboard-ui/internal/ports"
)

// AuthConfig contains configuration for the auth collaborators.
type AuthConfig struct {
	Auth        config.AuthConfig
	Sessions    config.SessionsConfig
	RedisPrefix string
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildSessionStore picks where persisted sign-ins live.
//
//nolint:ireturn // the store is chosen at runtime
func BuildSessionStore(cfg AuthConfig) (ports.SessionStore, error) {
	switch cfg.Sessions.Store {
	case config.SessionStoreRedis:
		if cfg.RedisClient == nil {
			return nil, fmt.Errorf("session store %q: redis client not configured", cfg.Sessions.Store)
		}
		return redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.RedisPrefix), nil
	case config.SessionStoreMemory, "":
		if cfg.Logger != nil {
			cfg.Logger.Warn("persisted sign-ins are kept in memory and lost on restart")
		}
		return memory.NewSessions(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Sessions.Store)
	}
}

// BuildAuthProvider creates the SSO provider for the configured auth mode.
// Local mode has no provider and returns nil.
//
//nolint:ireturn // the provider is chosen at runtime
func BuildAuthProvider(ctx context.Context, cfg AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          cfg.Auth.DevAuth.UserID,
			Email:           cfg.Auth.DevAuth.Email,
			Name:            cfg.Auth.DevAuth.Name,
			SessionDuration: cfg.Auth.SessionTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, nil
	}
}
