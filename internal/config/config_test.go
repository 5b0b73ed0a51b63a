package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Danfoss", cfg.Comparison.ReferenceVendor)
	assert.Equal(t, 100, cfg.Extraction.MinTextLength)
	assert.Equal(t, 8000, cfg.Extraction.MaxPromptChars)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  driver: file
  root: data
cache:
  ttl: 10m
comparison:
  reference_vendor: Danfoss
  matcher: fuzzy
extraction:
  max_concurrent: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.Root)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "fuzzy", cfg.Comparison.Matcher)
	assert.Equal(t, 4, cfg.Extraction.MaxConcurrent)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-ant-test", cfg.LLM.APIKey())
}

func TestLoad_DatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:/tmp/x.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.SQLite.Path)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad storage", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"bad cache", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"bad provider", func(c *Config) { c.LLM.Provider = "gemini" }},
		{"bad matcher", func(c *Config) { c.Comparison.Matcher = "regex" }},
		{"no reference vendor", func(c *Config) { c.Comparison.ReferenceVendor = "" }},
		{"no workers", func(c *Config) { c.Extraction.MaxConcurrent = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
