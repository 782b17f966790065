// Package config provides configuration loading for the resume analyzer.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	OpenAI   OpenAIConfig   `koanf:"openai"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// MaxUpload is the request body limit in echo's size notation ("8M").
	MaxUpload string `koanf:"max_upload"`
}

// OpenAIConfig holds credentials and model selection for the OpenAI-compatible
// provider used for both embeddings and generation.
type OpenAIConfig struct {
	APIKey         Secret `koanf:"api_key"`
	BaseURL        string `koanf:"base_url"`
	Model          string `koanf:"model"`
	EmbeddingModel string `koanf:"embedding_model"`

	// Timeout bounds every individual external model call.
	Timeout Duration `koanf:"timeout"`

	// RateLimit is the sustained request rate (requests per second) against
	// the provider; RateBurst is the allowed burst on top of it.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// PipelineConfig holds the tunables of the analysis pipeline.
type PipelineConfig struct {
	ChunkSize    int `koanf:"chunk_size"`
	ChunkOverlap int `koanf:"chunk_overlap"`

	// TopK is the number of segments retrieved per analysis query.
	TopK int `koanf:"top_k"`

	// MaxContextChars caps the size of the grounding context block
	// assembled from retrieved segments.
	MaxContextChars int `koanf:"max_context_chars"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

// Validate checks the configuration for values that would cause confusing
// downstream failures. The API key in particular must be present at startup:
// a placeholder key would only surface as opaque provider errors mid-request.
func (c *Config) Validate() error {
	if !c.OpenAI.APIKey.IsSet() {
		return fmt.Errorf("openai.api_key is required (set OPENAI_API_KEY)")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [0, 65535], got %d", c.Server.Port)
	}
	if c.Pipeline.ChunkSize <= 0 {
		return fmt.Errorf("pipeline.chunk_size must be positive, got %d", c.Pipeline.ChunkSize)
	}
	if c.Pipeline.ChunkOverlap < 0 || c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		return fmt.Errorf("pipeline.chunk_overlap must be in [0, chunk_size), got %d", c.Pipeline.ChunkOverlap)
	}
	if c.Pipeline.TopK < 1 {
		return fmt.Errorf("pipeline.top_k must be at least 1, got %d", c.Pipeline.TopK)
	}
	if c.Pipeline.MaxContextChars <= 0 {
		return fmt.Errorf("pipeline.max_context_chars must be positive, got %d", c.Pipeline.MaxContextChars)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.MaxUpload == "" {
		cfg.Server.MaxUpload = "8M"
	}

	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = Duration(30 * time.Second)
	}
	if cfg.OpenAI.RateLimit == 0 {
		cfg.OpenAI.RateLimit = 2
	}
	if cfg.OpenAI.RateBurst == 0 {
		cfg.OpenAI.RateBurst = 4
	}

	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = 1000
	}
	// Zero overlap is indistinguishable from unset; treat it as unset.
	// Set PIPELINE_CHUNK_OVERLAP explicitly to opt out of overlapping.
	if cfg.Pipeline.ChunkOverlap == 0 && cfg.Pipeline.ChunkSize > 100 {
		cfg.Pipeline.ChunkOverlap = 100
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 4
	}
	if cfg.Pipeline.MaxContextChars == 0 {
		cfg.Pipeline.MaxContextChars = 6000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
