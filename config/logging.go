package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (f *LogFormat) UnmarshalText(text []byte) error {
	switch v := LogFormat(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case LogFormatJSON, LogFormatText:
		*f = v
		return nil
	case "":
		*f = LogFormatJSON
		return nil
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q (want json or text)", text)
	}
}

// LogConfig is read before the rest of AppConfig so startup errors are logged in the chosen shape.
type LogConfig struct {
	Level  slog.Level `env:"LOG_LEVEL"  envDefault:"INFO"`
	Format LogFormat  `env:"LOG_FORMAT" envDefault:"json"`
}
