package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/onboard-ui/config"
	"github.com/target/onboard-ui/internal/bootstrap"
	"github.com/target/onboard-ui/internal/ports"
)

var errMemoryBackend = errors.New("BACKEND_MODE=memory keeps nothing between runs; point onboard-admin at postgres or remote")

// infra is the set of connections and collaborators a command works with.
type infra struct {
	DB       *sql.DB
	Redis    redis.UniversalClient
	Backend  bootstrap.Backend
	Sessions ports.SessionStore
}

// openInfra connects what the configured backend and session store need.
func openInfra(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*infra, error) {
	if cfg.Backend.Mode == config.BackendModeMemory {
		return nil, errMemoryBackend
	}

	in := &infra{}
	if cfg.NeedsPostgres() {
		db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		in.DB = db
	}
	if cfg.NeedsRedis() {
		client, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("connect redis: %w", err), in.Close())
		}
		in.Redis = client
	}

	backend, err := bootstrap.BuildBackend(bootstrap.BackendDeps{
		Auth:    cfg.Auth,
		Backend: cfg.Backend,
		DB:      in.DB,
		Logger:  logger,
	})
	if err != nil {
		return nil, errors.Join(err, in.Close())
	}
	in.Backend = backend

	sessions, err := bootstrap.BuildSessionStore(bootstrap.AuthConfig{
		Sessions:    cfg.Sessions,
		RedisPrefix: cfg.Redis.KeyPrefix,
		RedisClient: in.Redis,
		Logger:      logger,
	})
	if err != nil {
		return nil, errors.Join(err, in.Close())
	}
	in.Sessions = sessions

	return in, nil
}

// Close releases the connections; nil fields are skipped.
func (in *infra) Close() error {
	if in == nil {
		return nil
	}
	var closeErr error
	if in.DB != nil {
		if err := in.DB.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if in.Redis != nil {
		if err := in.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

// withInfra opens infrastructure for the duration of fn.
func (a *app) withInfra(ctx context.Context, fn func(*infra) error) error {
	in, err := a.openInfra(ctx, &a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			a.logger.Warn("close infrastructure", "error", cerr)
		}
	}()
	return fn(in)
}
