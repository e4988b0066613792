package config

import (
	"github.com/garyjia/signage-ops/internal/container"
)

// ToContainerConfig converts the file-based config loaded by viper into the
// container's typed configuration
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Lark: container.LarkConfig{
			Enabled:      c.Lark.Enabled,
			AppID:        c.Lark.AppID,
			AppSecret:    c.Lark.AppSecret,
			BaseURL:      c.Lark.BaseURL,
			NotifyChatID: c.Lark.NotifyChatID,
		},
		Seed: container.SeedConfig{
			TemplatesPath: c.Seed.TemplatesPath,
		},
		MetricsEnabled: c.Metrics.Enabled,
		DefaultLocale:  c.I18n.DefaultLocale,
	}
}
