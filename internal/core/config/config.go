package config

import (
	"time"

	"github.com/vietddude/provisioner/internal/core/domain"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DiscordConfig holds REST transport settings.
type DiscordConfig struct {
	Token             string        `yaml:"token"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
}

// RetryConfig holds retry driver settings.
type RetryConfig struct {
	FallbackDelay        time.Duration `yaml:"fallback_delay"`
	MaxTransientAttempts int           `yaml:"max_transient_attempts"` // 0 = unbounded
	RetryListChannels    *bool         `yaml:"retry_list_channels"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig holds the optional /metrics listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// ListChannelsRetried reports whether channel listing goes through the retry driver.
func (c RetryConfig) ListChannelsRetried() bool {
	return c.RetryListChannels == nil || *c.RetryListChannels
}

// RequireToken fails with KindMissingCredential when no bot token is configured.
func (c *AppConfig) RequireToken() error {
	if c.Discord.Token == "" {
		return &domain.Error{
			Kind:   domain.KindMissingCredential,
			Op:     "load credential",
			Detail: "DISCORD_TOKEN is not set",
		}
	}
	return nil
}
