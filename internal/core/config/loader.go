package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go-simpler.org/env"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/provisioner/internal/infra/discord"
	"github.com/vietddude/provisioner/internal/infra/rest"
)

// envOverrides are applied on top of the YAML file when set.
type envOverrides struct {
	Token    string `env:"DISCORD_TOKEN"`
	BaseURL  string `env:"DISCORD_API_BASE"`
	LogLevel string `env:"PROVISIONER_LOG_LEVEL"`
}

// Load reads configuration from a YAML file. A missing file is not an error:
// environment overrides and defaults still apply.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			// Expand environment variables in the YAML content
			expandedData := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	var ov envOverrides
	if err := env.Load(&ov, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if ov.Token != "" {
		cfg.Discord.Token = ov.Token
	}
	if ov.BaseURL != "" {
		cfg.Discord.BaseURL = ov.BaseURL
	}
	if ov.LogLevel != "" {
		cfg.Logging.Level = ov.LogLevel
	}

	// Set defaults if necessary
	if cfg.Discord.BaseURL == "" {
		cfg.Discord.BaseURL = discord.DefaultBaseURL
	}
	if cfg.Discord.Timeout == 0 {
		cfg.Discord.Timeout = 30 * time.Second
	}
	if cfg.Retry.FallbackDelay == 0 {
		cfg.Retry.FallbackDelay = rest.DefaultFallbackDelay
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	if cfg.Retry.FallbackDelay < 0 {
		return errors.New("retry.fallback_delay must not be negative")
	}
	if cfg.Retry.MaxTransientAttempts < 0 {
		return errors.New("retry.max_transient_attempts must not be negative")
	}
	if cfg.Discord.RequestsPerSecond < 0 {
		return errors.New("discord.requests_per_second must not be negative")
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	return nil
}
