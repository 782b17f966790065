package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "8M", cfg.Server.MaxUpload)

	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout.Duration())

	assert.Equal(t, 1000, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 100, cfg.Pipeline.ChunkOverlap)
	assert.Equal(t, 4, cfg.Pipeline.TopK)
	assert.Equal(t, 6000, cfg.Pipeline.MaxContextChars)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai.api_key is required")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("PIPELINE_CHUNK_SIZE", "500")
	t.Setenv("PIPELINE_CHUNK_OVERLAP", "50")
	t.Setenv("PIPELINE_TOP_K", "2")
	t.Setenv("OPENAI_TIMEOUT", "5s")
	t.Setenv("LOGGING_FORMAT", "console")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 50, cfg.Pipeline.ChunkOverlap)
	assert.Equal(t, 2, cfg.Pipeline.TopK)
	assert.Equal(t, 5*time.Second, cfg.OpenAI.Timeout.Duration())
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "test-key", cfg.OpenAI.APIKey.Value())
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
pipeline:
  chunk_size: 800
  chunk_overlap: 80
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 800, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 80, cfg.Pipeline.ChunkOverlap)
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "6060")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.OpenAI.APIKey = "key"
		applyDefaults(cfg)
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("overlap must be smaller than chunk size", func(t *testing.T) {
		cfg := valid()
		cfg.Pipeline.ChunkOverlap = cfg.Pipeline.ChunkSize
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunk_overlap")
	})

	t.Run("top_k must be at least 1", func(t *testing.T) {
		cfg := valid()
		cfg.Pipeline.TopK = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown logging format rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Format = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("port range enforced", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("super-secret-key")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "super-secret-key", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	empty := Secret("")
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))

	text, err := Duration(time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1s", string(text))
}
