// Package config loads application configuration from defaults, an optional
// YAML file, a .env file and PENDANT_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Qdrant  QdrantConfig  `yaml:"qdrant"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Redis   RedisConfig   `yaml:"redis"`
	Search  SearchConfig  `yaml:"search"`
	Summary SummaryConfig `yaml:"summary"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
}

// StoreConfig represents the durable document store configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig represents the vector index configuration.
type QdrantConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	APIKey         string `yaml:"-"`
	UseTLS         bool   `yaml:"use_tls"`
	Collection     string `yaml:"collection"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RetryAttempts  int    `yaml:"retry_attempts"`
}

// GeminiConfig represents the text-generation and embedding provider
// configuration. An empty APIKey leaves the provider unconfigured; the
// pipeline then runs entirely on local fallbacks.
type GeminiConfig struct {
	APIKey          string `yaml:"-"`
	GenerationModel string `yaml:"generation_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// RedisConfig represents the optional embedding-cache configuration.
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"-"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// SearchConfig represents semantic search behavior.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// SummaryConfig represents summarization behavior.
type SummaryConfig struct {
	CharBudget int `yaml:"char_budget"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Store: StoreConfig{
			Path: "./data/pendant.db",
		},
		Qdrant: QdrantConfig{
			Host:           "localhost",
			Port:           6334,
			UseTLS:         false,
			Collection:     "audio_chunks",
			TimeoutSeconds: 30,
			RetryAttempts:  3,
		},
		Gemini: GeminiConfig{
			GenerationModel: "gemini-2.5-flash",
			EmbeddingModel:  "text-embedding-004",
			TimeoutSeconds:  30,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			TTLMinutes: 1440,
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Summary: SummaryConfig{
			CharBudget: 8000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file
// (PENDANT_CONFIG_FILE or ./config.yaml), .env and environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := DefaultConfig()

	if err := loadYAML(config); err != nil {
		return nil, err
	}
	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func loadYAML(config *Config) error {
	path := os.Getenv("PENDANT_CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(config *Config) {
	setString(&config.Server.Host, "PENDANT_HOST")
	setInt(&config.Server.Port, "PENDANT_PORT")
	setInt(&config.Server.ReadTimeout, "PENDANT_READ_TIMEOUT_SECONDS")
	setInt(&config.Server.WriteTimeout, "PENDANT_WRITE_TIMEOUT_SECONDS")

	setString(&config.Store.Path, "PENDANT_STORE_PATH")

	setString(&config.Qdrant.Host, "QDRANT_HOST")
	setInt(&config.Qdrant.Port, "QDRANT_PORT")
	setString(&config.Qdrant.APIKey, "QDRANT_API_KEY")
	setBool(&config.Qdrant.UseTLS, "QDRANT_USE_TLS")
	setString(&config.Qdrant.Collection, "QDRANT_COLLECTION")
	setInt(&config.Qdrant.TimeoutSeconds, "QDRANT_TIMEOUT_SECONDS")
	setInt(&config.Qdrant.RetryAttempts, "QDRANT_RETRY_ATTEMPTS")

	setString(&config.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&config.Gemini.GenerationModel, "GEMINI_GENERATION_MODEL")
	setString(&config.Gemini.EmbeddingModel, "GEMINI_EMBEDDING_MODEL")
	setInt(&config.Gemini.TimeoutSeconds, "GEMINI_TIMEOUT_SECONDS")

	setBool(&config.Redis.Enabled, "PENDANT_REDIS_ENABLED")
	setString(&config.Redis.Addr, "PENDANT_REDIS_ADDR")
	setString(&config.Redis.Password, "PENDANT_REDIS_PASSWORD")
	setInt(&config.Redis.DB, "PENDANT_REDIS_DB")
	setInt(&config.Redis.TTLMinutes, "PENDANT_REDIS_TTL_MINUTES")

	setInt(&config.Search.DefaultLimit, "PENDANT_SEARCH_DEFAULT_LIMIT")
	setInt(&config.Search.MaxLimit, "PENDANT_SEARCH_MAX_LIMIT")
	setInt(&config.Summary.CharBudget, "PENDANT_SUMMARY_CHAR_BUDGET")

	setString(&config.Logging.Level, "PENDANT_LOG_LEVEL")
	setString(&config.Logging.Format, "PENDANT_LOG_FORMAT")
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setBool(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "true" || v == "1"
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	// An empty store path or Qdrant host selects the in-memory fallback.
	if c.Qdrant.Host != "" && (c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535) {
		return fmt.Errorf("invalid qdrant port: %d", c.Qdrant.Port)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("invalid search limits: default=%d max=%d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Summary.CharBudget <= 0 {
		return fmt.Errorf("summary char budget must be positive")
	}
	return nil
}
