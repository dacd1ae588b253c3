package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/target/onboard-ui/config"
	"github.com/target/onboard-ui/internal/cryptoutil"
	httpx "github.com/target/onboard-ui/internal/http"
	"github.com/target/onboard-ui/internal/imaging"
	"github.com/target/onboard-ui/internal/instance"
	"github.com/target/onboard-ui/internal/observability/statsd"
	"github.com/target/onboard-ui/internal/ports"
	"github.com/target/onboard-ui/internal/service"
	"golang.org/x/sync/errgroup"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	Setup         *service.SetupService
	Registry      *instance.Registry
	Avatars       ports.AvatarStore
	Sealer        cryptoutil.Sealer
	Health        map[string]httpx.HealthCheck
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Sink returns the metrics sink, or nil when metrics are off.
//
//nolint:ireturn // a nil interface keeps emitters on their fast path
func (o ObservabilityContainer) Sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures the metrics adapter.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Address:       cfg.Metrics.StatsdAddress,
			Prefix:        cfg.Metrics.Prefix,
			GlobalTags:    cfg.Metrics.Tags,
			FlushInterval: cfg.Metrics.FlushInterval,
			Logger:        obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildHealthChecks registers a probe per connected dependency.
func buildHealthChecks(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.HealthCheck {
	checks := make(map[string]httpx.HealthCheck)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// NewServices wires collaborators, services and the instance registry.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps missing AppConfig")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, cfg.Observability)
	sink := obs.Sink()

	backend, err := BuildBackend(BackendDeps{
		Auth:    cfg.Auth,
		Backend: cfg.Backend,
		DB:      deps.DB,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("backend: %w", err)
	}

	authCfg := AuthConfig{
		Auth:        cfg.Auth,
		Sessions:    cfg.Sessions,
		RedisPrefix: cfg.Redis.KeyPrefix,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	}
	sessions, err := BuildSessionStore(authCfg)
	if err != nil {
		return ServiceContainer{}, err
	}
	provider, err := BuildAuthProvider(ctx, authCfg)
	if err != nil {
		return ServiceContainer{}, err
	}

	var sealer cryptoutil.Sealer
	if provider != nil {
		if sealer, err = CreateSealer(cfg.Auth.CookieKey, cfg.IsDev, logger); err != nil {
			return ServiceContainer{}, err
		}
	}

	auth := service.NewAuthService(service.AuthServiceOptions{
		Accounts:   backend.Accounts,
		Profiles:   backend.Profiles,
		Provider:   provider,
		Sessions:   sessions,
		SessionTTL: cfg.Auth.SessionTTL,
		Metrics:    sink,
		Logger:     logger,
	})
	setup := service.NewSetupService(service.SetupServiceOptions{
		Profiles: backend.Profiles,
		Images: imaging.NewProcessor(imaging.ProcessorOptions{
			AvatarSize: cfg.Upload.AvatarSize,
			Quality:    cfg.Upload.JPEGQuality,
		}),
		Auth:    auth,
		Metrics: sink,
		Logger:  logger,
	})
	registry := instance.NewRegistry(instance.RegistryOptions{
		IdleTTL:       cfg.Instances.IdleTTL,
		SweepInterval: cfg.Instances.SweepInterval,
		StagingLimit:  cfg.Instances.StagingLimit,
		Logger:        logger,
		Metrics:       sink,
	})

	return ServiceContainer{
		Auth:          auth,
		Setup:         setup,
		Registry:      registry,
		Avatars:       backend.Avatars,
		Sealer:        sealer,
		Health:        buildHealthChecks(deps.DB, deps.RedisClient),
		Observability: obs,
	}, nil
}

// ServiceOrchestrationConfig contains what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown serves HTTP and runs the instance janitor and the
// metrics flusher until SIGINT/SIGTERM, ctx cancellation, or a failure.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server, err := NewHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return cfg.Services.Registry.Run(gctx)
	})
	g.Go(func() error {
		return cfg.Services.Observability.MetricsSink.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		return ShutdownHTTPServer(ShutdownConfig{
			Context:  context.WithoutCancel(gctx),
			Server:   server,
			Registry: cfg.Services.Registry,
			Timeout:  cfg.Config.HTTP.ShutdownTimeout,
			Logger:   logger,
		})
	})

	err = g.Wait()
	if cerr := cfg.Services.Observability.MetricsSink.Close(); cerr != nil {
		logger.Warn("close statsd client", "error", cerr)
	}
	return err
}
