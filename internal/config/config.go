// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/unigen.db"`
	UploadDir   string `env:"UPLOAD_DIR" envDefault:"./data/documents"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	MaxRequestBodyBytes int64         `env:"MAX_REQUEST_BODY_BYTES" envDefault:"1048576"`
	UploadMaxBytes      int64         `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
	StoreWriteTimeout   time.Duration `env:"STORE_WRITE_TIMEOUT" envDefault:"5s"`

	LLM       LLMConfig
	Retrieval RetrievalConfig
	Interview InterviewConfig
	Health    HealthConfig
}

// LLMConfig selects and bounds the text generation provider.
type LLMConfig struct {
	Provider        string        `env:"LLM_PROVIDER" envDefault:"openai"`
	BaseURL         string        `env:"LLM_BASE_URL" envDefault:"http://localhost:11434/v1"`
	APIKey          string        `env:"LLM_API_KEY" envDefault:"ollama"`
	Model           string        `env:"LLM_MODEL" envDefault:"llama3.2:1b"`
	EmbeddingModel  string        `env:"LLM_EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`
	Timeout         time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	ClassifyTimeout time.Duration `env:"LLM_CLASSIFY_TIMEOUT" envDefault:"10s"`
}

// RetrievalConfig controls note ingestion and lookup.
type RetrievalConfig struct {
	TopK      int `env:"RETRIEVAL_TOP_K" envDefault:"5"`
	ChunkSize int `env:"RETRIEVAL_CHUNK_SIZE" envDefault:"1200"`
}

// InterviewConfig controls expiry of abandoned interview sessions.
type InterviewConfig struct {
	IdleTTL       time.Duration `env:"INTERVIEW_IDLE_TTL" envDefault:"2h"`
	SweepSchedule string        `env:"INTERVIEW_SWEEP_SCHEDULE" envDefault:"@every 5m"`
}

// HealthConfig controls the optional gRPC health server.
type HealthConfig struct {
	GRPCPort string        `env:"GRPC_HEALTH_PORT"`
	Interval time.Duration `env:"GRPC_HEALTH_INTERVAL" envDefault:"15s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR cannot be empty")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be > 0")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be > 0")
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "":
	case "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be > 0")
	}
	if c.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("RETRIEVAL_CHUNK_SIZE must be > 0")
	}
	if c.Interview.IdleTTL < 0 {
		return fmt.Errorf("INTERVIEW_IDLE_TTL cannot be negative")
	}
	if c.Interview.IdleTTL > 0 && c.Interview.SweepSchedule == "" {
		return fmt.Errorf("INTERVIEW_SWEEP_SCHEDULE cannot be empty")
	}
	if c.Health.GRPCPort != "" && c.Health.Interval <= 0 {
		return fmt.Errorf("GRPC_HEALTH_INTERVAL must be > 0")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
