package ai

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2:1.5b", cfg.ChatModel)
	assert.Equal(t, ProviderOpenAI, cfg.EmbeddingProvider)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout)
	assert.False(t, cfg.GeminiEnabled())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ChatHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithChatHost("http://chat:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://chat:9090/v1", cfg.ChatHost)
	})

	t.Run("with gemini", func(t *testing.T) {
		cfg := NewConfig(WithGemini("key", ""))

		assert.True(t, cfg.GeminiEnabled())
		assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)

		cfg = NewConfig(WithGemini("key", "gemini-pro"))
		assert.Equal(t, "gemini-pro", cfg.GeminiModel)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithEmbeddingModel("custom-embed"),
			WithChatModel("custom-chat"),
			WithAnalysisModel("custom-analysis"),
			WithCallTimeout(5*time.Second),
			WithEmbeddingCache(10, time.Minute),
		)

		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-chat", cfg.ChatModel)
		assert.Equal(t, "custom-analysis", cfg.AnalysisModel)
		assert.Equal(t, 5*time.Second, cfg.CallTimeout)
		assert.Equal(t, 10, cfg.EmbeddingCacheSize)
		assert.Equal(t, time.Minute, cfg.EmbeddingCacheTTL)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name          string
		embeddingHost string
		chatHost      string
		wantEmbedding string
		wantChat      string
	}{
		{
			name:          "already has /v1",
			embeddingHost: "http://localhost:11434/v1",
			chatHost:      "http://localhost:11434/v1",
			wantEmbedding: "http://localhost:11434/v1",
			wantChat:      "http://localhost:11434/v1",
		},
		{
			name:          "missing /v1",
			embeddingHost: "http://localhost:11434",
			chatHost:      "http://localhost:11434",
			wantEmbedding: "http://localhost:11434/v1",
			wantChat:      "http://localhost:11434/v1",
		},
		{
			name:          "has trailing slash",
			embeddingHost: "http://localhost:11434/",
			chatHost:      "http://localhost:11434/",
			wantEmbedding: "http://localhost:11434/v1",
			wantChat:      "http://localhost:11434/v1",
		},
		{
			name:          "empty hosts",
			wantEmbedding: "",
			wantChat:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost: tt.embeddingHost,
				ChatHost:      tt.chatHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.wantEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.wantChat, cfg.ChatHost)
		})
	}

	t.Run("analysis model defaults to chat model", func(t *testing.T) {
		cfg := &Config{ChatModel: "qwen2:1.5b"}
		cfg.Normalize()
		assert.Equal(t, "qwen2:1.5b", cfg.AnalysisModel)
		assert.Equal(t, "none", cfg.APIToken)
		assert.Equal(t, ProviderOpenAI, cfg.EmbeddingProvider)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:  "http://localhost:11434",
			ChatHost:       "http://localhost:11434",
			EmbeddingModel: "all-minilm",
			ChatModel:      "qwen2:1.5b",
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing chat host", func(c *Config) { c.ChatHost = "" }, "ChatHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing chat model", func(c *Config) { c.ChatModel = "" }, "ChatModel"},
		{"gemini without model", func(c *Config) { c.GeminiAPIKey = "k" }, "GeminiModel"},
		{"gemini embeddings without key", func(c *Config) { c.EmbeddingProvider = ProviderGemini }, "GeminiAPIKey"},
		{"unknown embedding provider", func(c *Config) { c.EmbeddingProvider = "cohere" }, "EmbeddingProvider"},
		{"negative embedding dimension", func(c *Config) { c.EmbeddingDimension = -1 }, "EmbeddingDimension"},
		{"negative timeout", func(c *Config) { c.CallTimeout = -time.Second }, "CallTimeout"},
		{"negative cache size", func(c *Config) { c.EmbeddingCacheSize = -1 }, "EmbeddingCacheSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "minutes.yaml")
		content := "chat_host: http://gpu-box:11434\nchat_model: llama3\ncall_timeout: 45s\ngemini_api_key: secret\nembedding_dimension: 768\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadConfigFile(path, WithEmbeddingModel("nomic-embed-text"))
		require.NoError(t, err)

		assert.Equal(t, "http://gpu-box:11434", cfg.ChatHost)
		assert.Equal(t, "llama3", cfg.ChatModel)
		assert.Equal(t, 45*time.Second, cfg.CallTimeout)
		assert.Equal(t, "secret", cfg.GeminiAPIKey)
		assert.Equal(t, 768, cfg.EmbeddingDimension)
		assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
		// untouched keys keep defaults
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chat_host: [unclosed"), 0o600))

		_, err := LoadConfigFile(path)
		assert.Error(t, err)
	})
}
