package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("CLUBLY_BOT_TOKEN", "test_token")

	yamlContent := `
telegram:
  bot_token: "${CLUBLY_BOT_TOKEN}"
backend:
  base_url: "http://localhost:8001"
  timeout: 5s
database:
  path: "test.db"
bot:
  timezone: "Europe/Rome"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "test_token", cfg.Telegram.BotToken)
	assert.Equal(t, "http://localhost:8001", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, time.Minute, cfg.Backend.CacheTTL)
	assert.Equal(t, "@every 5m", cfg.Bot.CatalogRefresh)
	assert.Equal(t, "Europe/Rome", cfg.Location().String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Telegram: TelegramConfig{BotToken: "token"},
			Database: DatabaseConfig{Path: "path"},
			Backend:  BackendConfig{BaseURL: "https://api.clubly.it"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing token", mutate: func(c *Config) { c.Telegram.BotToken = "" }, wantErr: true},
		{name: "placeholder token", mutate: func(c *Config) { c.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE" }, wantErr: true},
		{name: "missing database", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "missing backend", mutate: func(c *Config) { c.Backend.BaseURL = "" }, wantErr: true},
		{name: "relative backend", mutate: func(c *Config) { c.Backend.BaseURL = "/api" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Bot.Timezone = "Mars/Olympus" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, "clubly-bot", cfg.App.Name)
	assert.Equal(t, 8090, cfg.Monitoring.HealthCheckPort)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 20.0, cfg.Backend.RateLimit.RPS)
	assert.Equal(t, 40, cfg.Backend.RateLimit.Burst)
	assert.Equal(t, 5, cfg.Bot.PaginationSize)
	assert.Equal(t, 20, cfg.Bot.RateLimitMessages)
	assert.Equal(t, 60, cfg.Bot.RateLimitWindow)
}
