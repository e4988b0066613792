// Package container wires the approval subsystem together and owns the
// lifecycle of everything it starts.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Lark     LarkConfig
	Seed     SeedConfig

	// MetricsEnabled exposes /metrics and the approval counters
	MetricsEnabled bool

	// DefaultLocale is the language stored texts and the feed are rendered in
	DefaultLocale string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to the SQLite database file, or ":memory:"
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LarkConfig holds the management feed settings.
type LarkConfig struct {
	Enabled bool

	AppID     string
	AppSecret string
	BaseURL   string

	// NotifyChatID is the management chat the feed posts to
	NotifyChatID string
}

// SeedConfig holds start-up data locations.
type SeedConfig struct {
	// TemplatesPath overrides the embedded workflow template set
	TemplatesPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/signage-ops.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		MetricsEnabled: true,
		DefaultLocale:  "zh",
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.DefaultLocale == "" {
		return fmt.Errorf("default locale is required")
	}

	if c.Lark.Enabled {
		if c.Lark.AppID == "" || c.Lark.AppSecret == "" {
			return fmt.Errorf("lark credentials are required when lark is enabled")
		}
		if c.Lark.NotifyChatID == "" {
			return fmt.Errorf("lark.notify_chat_id is required when lark is enabled")
		}
	}

	return nil
}
