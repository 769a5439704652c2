/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures the relay by reading operating system environment variables, including the running
environment, port, WebSocket path, CORS allowed origins, per-connection limits and the optional
presence audit database.
*/
package configs

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`
	WSPath      string `env:"WS_PATH" envDefault:"/ws"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Connection Settings
	MaxMessageBytes int64   `env:"MAX_MESSAGE_BYTES" envDefault:"8192"`
	SendQueueSize   int     `env:"SEND_QUEUE_SIZE" envDefault:"256"`
	MessageRate     float64 `env:"MESSAGE_RATE" envDefault:"20"`
	MessageBurst    int     `env:"MESSAGE_BURST" envDefault:"40"`

	// Database Settings. Presence auditing is disabled when empty.
	DatabaseDSN string `env:"DATABASE_URL"`
}

// IsDevelopment reports whether the relay runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the application configuration from environment variables.
// Defaults are declared on the struct tags; the parsed values are then validated.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	cfg.AllowedOrigins = origins

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every setting is within its accepted range.
func (c *AppConfig) Validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	if !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("WS_PATH must start with '/', got %q", c.WSPath)
	}

	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("MAX_MESSAGE_BYTES must be positive, got %d", c.MaxMessageBytes)
	}

	if c.SendQueueSize <= 0 {
		return fmt.Errorf("SEND_QUEUE_SIZE must be positive, got %d", c.SendQueueSize)
	}

	if c.MessageRate <= 0 || c.MessageBurst <= 0 {
		return fmt.Errorf("MESSAGE_RATE and MESSAGE_BURST must be positive, got %v and %d", c.MessageRate, c.MessageBurst)
	}

	return nil
}
