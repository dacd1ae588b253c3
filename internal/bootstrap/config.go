package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/onboard-ui/config"
)

// InitLogger installs the default logger from LOG_LEVEL and LOG_FORMAT. A bad
// value falls back to JSON at info and is reported through that logger.
func InitLogger() *slog.Logger {
	var cfg config.LogConfig
	parseErr := env.Parse(&cfg)
	if parseErr != nil {
		cfg = config.LogConfig{Level: slog.LevelInfo, Format: config.LogFormatJSON}
	}
	logger := NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	if parseErr != nil {
		logger.Warn("invalid logging config, using defaults", "error", parseErr)
	}
	return logger
}

// NewLogger builds a logger writing to w.
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == config.LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// LoadConfig loads configuration from environment variables, after a .env file
// in the working directory if one exists.
func LoadConfig() (config.AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg, err := env.ParseAs[config.AppConfig]()
	if err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
