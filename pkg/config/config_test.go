package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "rateAI_user", cfg.Storage.Key)
	assert.Equal(t, "block", cfg.Reactions.Policy)
	assert.Equal(t, 3, cfg.Classifier.MaxTags)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://backend:8000
  timeout: 3s
storage:
  backend: redis
tags:
  vocabulary: ["免费", "长文本"]
reactions:
  policy: replace
`)
	t.Setenv("TELEGRAM_TOKEN", "tg-token")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:6543/cache?sslmode=require")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8000", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, []string{"免费", "长文本"}, cfg.Tags.Vocabulary)
	assert.Equal(t, "replace", cfg.Reactions.Policy)
	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, DatabaseConfig{Host: "db", Port: 6543, User: "u", Password: "p", DBName: "cache", SSLMode: "require"}, cfg.Database)
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: sqlite\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
