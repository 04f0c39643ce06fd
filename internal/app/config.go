package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/behaviourgrid/internal/config"
)

// Defaults applied when neither the configuration files nor the CLI set a value.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Config holds all the necessary configuration for an App instance to run.
// Zero-valued fields are filled from the configuration files and then from
// the defaults.
type Config struct {
	ConfigPaths []string // hcl and yaml files or directories

	LogFormat       string
	LogLevel        string
	Port            int
	HTTPTimeout     time.Duration
	EventsURL       string
	EventsNamespace string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	if cfg.Port < 0 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.HTTPTimeout < 0 {
		return nil, fmt.Errorf("invalid http timeout %s", cfg.HTTPTimeout)
	}
	return &cfg, nil
}

// settings converts the CLI-level values into the layered settings model.
func (c *Config) settings() config.Settings {
	return config.Settings{
		LogLevel:    c.LogLevel,
		LogFormat:   c.LogFormat,
		Port:        c.Port,
		HTTPTimeout: c.HTTPTimeout,
		Events: config.EventsSettings{
			URL:       c.EventsURL,
			Namespace: c.EventsNamespace,
		},
	}
}

func defaultSettings() config.Settings {
	return config.Settings{LogLevel: DefaultLogLevel, LogFormat: DefaultLogFormat}
}

func validateSettings(s config.Settings) error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", s.LogLevel)
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", s.LogFormat)
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	return nil
}
