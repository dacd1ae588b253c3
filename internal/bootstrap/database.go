package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	// Register the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/target/onboard-ui/config"
	"github.com/target/onboard-ui/internal/migrate"
)

const connectTimeout = 5 * time.Second

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// DSN renders the postgres connection URL; credentials are escaped.
func DSN(cfg config.DBConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConnectDB opens the profile/account database and pings it within ctx.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", DSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if n := cfg.DBConfig.MaxOpenConns; n > 0 {
		db.SetMaxOpenConns(n)
	}
	if n := cfg.DBConfig.MaxIdleConns; n > 0 {
		db.SetMaxIdleConns(n)
	}
	if d := cfg.DBConfig.ConnMaxLifetime; d > 0 {
		db.SetConnMaxLifetime(d)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		return nil, fmt.Errorf("ping database: %w", errors.Join(pingErr, db.Close()))
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}
	return db, nil
}

// ConnectRedis connects the sign-in store's redis and pings it within ctx.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := resolveRedis(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := target.client()

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		return nil, fmt.Errorf("ping redis: %w", errors.Join(pingErr, client.Close()))
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "mode", target.mode, "addr", target.desc)
	}
	return client, nil
}

// redisTarget is the resolved topology; exactly one options field is set.
type redisTarget struct {
	mode     string
	desc     string
	direct   *redis.Options
	cluster  *redis.ClusterOptions
	failover *redis.FailoverOptions
}

//nolint:ireturn // see ConnectRedis
func (t redisTarget) client() redis.UniversalClient {
	switch {
	case t.cluster != nil:
		return redis.NewClusterClient(t.cluster)
	case t.failover != nil:
		return redis.NewFailoverClient(t.failover)
	default:
		return redis.NewClient(t.direct)
	}
}

// resolveRedis maps REDIS_* settings onto go-redis options. REDIS_URI may be a
// bare host:port or a redis:// / rediss:// URL carrying credentials, db and TLS.
func resolveRedis(cfg config.RedisConfig) (redisTarget, error) {
	uri := strings.TrimSpace(cfg.URI)

	switch {
	case cfg.UseCluster:
		opts := &redis.ClusterOptions{Addrs: nonEmpty(cfg.ClusterNodes), Password: cfg.Password}
		if len(opts.Addrs) == 0 && uri != "" {
			parsed, err := parseRedisURI(uri, cfg.Password)
			if err != nil {
				return redisTarget{}, fmt.Errorf("parse redis cluster url: %w", err)
			}
			opts.Addrs = []string{parsed.Addr}
			opts.Username = parsed.Username
			opts.Password = parsed.Password
			opts.TLSConfig = parsed.TLSConfig
		}
		if len(opts.Addrs) == 0 {
			return redisTarget{}, errors.New("redis cluster configuration requires at least one address")
		}
		return redisTarget{mode: "cluster", desc: strings.Join(opts.Addrs, ","), cluster: opts}, nil

	case cfg.UseSentinel:
		nodes := nonEmpty(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return redisTarget{}, errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return redisTarget{
			mode: "sentinel",
			desc: cfg.SentinelMasterName,
			failover: &redis.FailoverOptions{
				MasterName:       cfg.SentinelMasterName,
				SentinelAddrs:    nodes,
				Password:         cfg.Password,
				SentinelPassword: cfg.SentinelPassword,
			},
		}, nil

	default:
		if uri == "" {
			return redisTarget{}, errors.New("redis direct configuration requires a URI")
		}
		opts, err := parseRedisURI(uri, cfg.Password)
		if err != nil {
			return redisTarget{}, fmt.Errorf("parse redis url: %w", err)
		}
		return redisTarget{mode: "direct", desc: opts.Addr, direct: opts}, nil
	}
}

// parseRedisURI accepts host:port or a redis URL; password fills in when the URL has none.
func parseRedisURI(uri, password string) (*redis.Options, error) {
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return &redis.Options{Addr: uri, Password: password}, nil
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	if opts.Password == "" {
		opts.Password = password
	}
	return opts, nil
}

func nonEmpty(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RunMigrations applies pending schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
