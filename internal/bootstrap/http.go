package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/onboard-ui/config"
	httpx "github.com/target/onboard-ui/internal/http"
	"github.com/target/onboard-ui/internal/instance"
)

// multipartOverhead is allowed on top of the upload limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the router and middleware chain. The caller starts it.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Auth:         cfg.Services.Auth,
		Setup:        cfg.Services.Setup,
		Avatars:      cfg.Services.Avatars,
		Health:       cfg.Services.Health,
		Sealer:       cfg.Services.Sealer,
		CookieDomain: appCfg.HTTP.CookieDomain,
		MaxUpload:    appCfg.Upload.MaxBytes,
		Metrics:      cfg.Services.Observability.Sink(),
		IsDev:        appCfg.IsDev,
		Logger:       logger,
	}

	handler, err := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: services,
		Registry: cfg.Services.Registry,
		HTTP:     appCfg.HTTP,
		Upload:   appCfg.Upload,
	})
	if err != nil {
		return nil, err
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	// WriteTimeout covers page and form handlers; the event stream clears its own deadline.
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
	Registry *instance.Registry
	HTTP     config.HTTPConfig
	Upload   config.UploadConfig
}

func buildHTTPHandler(cfg httpHandlerConfig) (http.Handler, error) {
	router, err := httpx.NewRouter(cfg.Services)
	if err != nil {
		return nil, err
	}

	// Order: Recover -> Logging -> Compression -> BodyLimit -> CSRF -> Instances -> Router
	h := httpx.Instances(httpx.InstanceConfig{
		Registry:     cfg.Registry,
		Auth:         cfg.Services.Auth,
		CookieDomain: cfg.HTTP.CookieDomain,
		Logger:       cfg.Logger,
	})(router)
	h = httpx.CSRFProtection(httpx.CSRFConfig{CookieDomain: cfg.HTTP.CookieDomain})(h)
	h = httpx.BodyLimit(cfg.Upload.MaxBytes + multipartOverhead)(h)
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel, Logger: cfg.Logger})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h, nil
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context  context.Context
	Server   *http.Server
	Registry *instance.Registry
	Timeout  time.Duration
	Logger   *slog.Logger
}

// ShutdownHTTPServer evicts every instance, which ends open event streams,
// and then gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	cfg.Server.SetKeepAlivesEnabled(false)
	if cfg.Registry != nil {
		cfg.Registry.Close()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
