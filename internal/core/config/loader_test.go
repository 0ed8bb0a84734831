package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/provisioner/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("TEST_BOT_TOKEN", "abc.def.ghi")

	path := writeConfig(t, `
discord:
  token: ${TEST_BOT_TOKEN}
  timeout: 10s
retry:
  fallback_delay: 1500ms
  retry_list_channels: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Discord.Token != "abc.def.ghi" {
		t.Errorf("Expected token abc.def.ghi, got %s", cfg.Discord.Token)
	}
	if cfg.Discord.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", cfg.Discord.Timeout)
	}
	if cfg.Retry.FallbackDelay != 1500*time.Millisecond {
		t.Errorf("Expected fallback 1.5s, got %v", cfg.Retry.FallbackDelay)
	}
	if cfg.Retry.ListChannelsRetried() {
		t.Errorf("Expected channel listing not to be retried")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Discord.Token != "from-env" {
		t.Errorf("Expected token from env, got %q", cfg.Discord.Token)
	}
	if cfg.Discord.BaseURL != "https://discord.com/api/v10" {
		t.Errorf("unexpected base URL %q", cfg.Discord.BaseURL)
	}
	if cfg.Retry.FallbackDelay != 5*time.Second {
		t.Errorf("Expected 5s fallback, got %v", cfg.Retry.FallbackDelay)
	}
	if !cfg.Retry.ListChannelsRetried() {
		t.Errorf("Expected channel listing to be retried by default")
	}
	if cfg.Retry.MaxTransientAttempts != 0 {
		t.Errorf("Expected unbounded transient retries, got %d", cfg.Retry.MaxTransientAttempts)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("PROVISIONER_LOG_LEVEL", "debug")

	path := writeConfig(t, `
discord:
  token: file-token
logging:
  level: warn
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Discord.Token != "env-token" {
		t.Errorf("Expected env token to win, got %q", cfg.Discord.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "discord: [unclosed"},
		{"bad format", "logging:\n  format: xml\n"},
		{"negative attempts", "retry:\n  max_transient_attempts: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestRequireToken(t *testing.T) {
	cfg := &AppConfig{}
	err := cfg.RequireToken()
	if !domain.IsKind(err, domain.KindMissingCredential) {
		t.Fatalf("expected missing_credential, got %v", err)
	}

	cfg.Discord.Token = "x"
	if err := cfg.RequireToken(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
