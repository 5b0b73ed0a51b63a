// Package config provides unified configuration loading for feature-compare.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for feature-compare.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Cache         CacheConfig         `yaml:"cache"`
	LLM           LLMConfig           `yaml:"llm"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Comparison    ComparisonConfig    `yaml:"comparison"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// StorageConfig selects where record collections live.
type StorageConfig struct {
	Driver   string         `yaml:"driver"` // file, sqlite or postgres
	Root     string         `yaml:"root"`   // file driver data directory
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds report cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// LLMConfig holds text-completion provider settings.
type LLMConfig struct {
	Provider          string        `yaml:"provider"` // openrouter, anthropic or none
	Model             string        `yaml:"model"`
	OpenRouterAPIKey  string        `yaml:"-"`
	AnthropicAPIKey   string        `yaml:"-"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

// ExtractionConfig holds batch extraction settings.
type ExtractionConfig struct {
	InputRoot      string `yaml:"input_root"`
	MaxConcurrent  int    `yaml:"max_concurrent"`
	MinTextLength  int    `yaml:"min_text_length"`
	MaxPromptChars int    `yaml:"max_prompt_chars"`
	SaveText       bool   `yaml:"save_text"`
}

// ComparisonConfig holds comparison service settings.
type ComparisonConfig struct {
	ReferenceVendor string        `yaml:"reference_vendor"`
	Matcher         string        `yaml:"matcher"` // exact, substring or fuzzy
	Analysis        bool          `yaml:"analysis"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Storage.Driver == "file" {
			cfg.Storage.Root = ResolveRelativePath(path, cfg.Storage.Root)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "file",
			Root:   "Compared_Data",
			SQLite: SQLiteConfig{
				Path:         "/tmp/feature-compare.db",
				MaxOpenConns: 1,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        time.Hour,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6380",
				PoolSize: 10,
			},
		},
		LLM: LLMConfig{
			Provider:          "openrouter",
			RequestsPerMinute: 30,
			Timeout:           2 * time.Minute,
		},
		Extraction: ExtractionConfig{
			InputRoot:      "EXTERNAL_COMPANIES",
			MaxConcurrent:  2,
			MinTextLength:  100,
			MaxPromptChars: 8000,
			SaveText:       true,
		},
		Comparison: ComparisonConfig{
			ReferenceVendor: "Danfoss",
			Matcher:         "substring",
			Analysis:        true,
			CacheTTL:        time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "console",
			ServiceName: "feature-compare",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Driver {
	case "file":
		if c.Storage.Root == "" {
			return fmt.Errorf("storage root is required for file driver")
		}
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}

	if c.Storage.Driver == "postgres" && c.Storage.Postgres.DSN == "" {
		return fmt.Errorf("postgres dsn is required")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	switch c.LLM.Provider {
	case "openrouter", "anthropic", "none":
	default:
		return fmt.Errorf("invalid llm provider: %s", c.LLM.Provider)
	}

	switch c.Comparison.Matcher {
	case "exact", "substring", "fuzzy":
	default:
		return fmt.Errorf("invalid matcher: %s", c.Comparison.Matcher)
	}

	if c.Comparison.ReferenceVendor == "" {
		return fmt.Errorf("reference_vendor is required")
	}

	if c.Extraction.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1")
	}

	return nil
}

// APIKey returns the credential for the configured provider.
func (c *LLMConfig) APIKey() string {
	switch c.Provider {
	case "openrouter":
		return c.OpenRouterAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Storage.Driver = "sqlite"
			cfg.Storage.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Storage.Driver = "postgres"
			cfg.Storage.Postgres.DSN = v
		}
	}

	if v := os.Getenv("DATA_ROOT"); v != "" {
		cfg.Storage.Root = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	cfg.LLM.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.LLM.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	if v := os.Getenv("REFERENCE_VENDOR"); v != "" {
		cfg.Comparison.ReferenceVendor = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
