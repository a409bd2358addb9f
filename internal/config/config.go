// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (NUTRIO_ prefix, runtime override)
//  2. Config file (~/.nutrio/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: model and embedder selection for the generative backend
//   - RAG: retrieval thresholds, memory bounds, retry policy
//   - Storage: PostgreSQL connection for persisted chat history
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidMaxDistance indicates the retrieval distance gate is out of range.
	ErrInvalidMaxDistance = errors.New("invalid max distance")

	// ErrInvalidTopK indicates the retrieval candidate count is out of range.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidMaxTurns indicates the short-term memory bound is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidMaxAttempts indicates the generate retry budget is out of range.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts")

	// ErrInvalidBackoffBase indicates the retry backoff base is out of range.
	ErrInvalidBackoffBase = errors.New("invalid backoff base")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")
)

// Default values for the RAG core. Deployments override them via config file
// or NUTRIO_* environment variables.
const (
	// DefaultModelName is the generative model used for all pipelines.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the embedding model for the vector index.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultCollection is the guideline collection queried at request time.
	DefaultCollection = "disease-guidelines"

	// DefaultMaxDistance is the retrieval relevance gate. Passages whose
	// cosine distance exceeds it are dropped entirely.
	DefaultMaxDistance = 0.8

	// DefaultTopK is the number of nearest-neighbor candidates fetched
	// before the distance gate is applied.
	DefaultTopK = 5

	// DefaultMaxTurns bounds the short-term conversation memory.
	DefaultMaxTurns = 6

	// DefaultMaxAttempts is the total generate attempts on overload.
	DefaultMaxAttempts = 3

	// DefaultBackoffBase is the base of the exponential retry backoff
	// (base*2^attempt: 2s, 4s, ...).
	DefaultBackoffBase = 2 * time.Second

	// DefaultHistoryLimit is how many persisted exchanges the chat pipeline
	// reloads per request.
	DefaultHistoryLimit = 10
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	ModelName     string `mapstructure:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model"`

	// RAG configuration
	Collection   string        `mapstructure:"collection"`
	IndexPath    string        `mapstructure:"index_path"`
	MaxDistance  float64       `mapstructure:"max_distance"`
	TopK         int           `mapstructure:"top_k"`
	MaxTurns     int           `mapstructure:"max_turns"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	BackoffBase  time.Duration `mapstructure:"backoff_base"`
	HistoryLimit int32         `mapstructure:"history_limit"`

	// Storage configuration (persisted chat history)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`
}

// Load reads configuration from file and environment.
// A missing config file is not an error; defaults and env apply.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NUTRIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir, err := configDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers the default value for every key so viper.Unmarshal
// always produces a complete Config.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	v.SetDefault("collection", DefaultCollection)
	v.SetDefault("index_path", "chroma-db")
	v.SetDefault("max_distance", DefaultMaxDistance)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("max_turns", DefaultMaxTurns)
	v.SetDefault("max_attempts", DefaultMaxAttempts)
	v.SetDefault("backoff_base", DefaultBackoffBase)
	v.SetDefault("history_limit", DefaultHistoryLimit)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "nutrio")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_dbname", "nutrio")
	v.SetDefault("postgres_sslmode", "disable")
}

// configDir returns the directory holding the config file (~/.nutrio).
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".nutrio"), nil
}

// PostgresURL returns the connection string in URL form, suitable for both
// pgxpool and golang-migrate. The password is URL-escaped.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.PostgresUser),
		url.QueryEscape(c.PostgresPassword),
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDBName,
		c.PostgresSSLMode,
	)
}
