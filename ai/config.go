// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted by EmbeddingProvider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string `yaml:"embedding_host"`

	// ChatHost is the base URL for the chat completion service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	ChatHost string `yaml:"chat_host"`

	// APIToken is sent as the bearer token to OpenAI-compatible hosts.
	// Local servers ignore it.
	APIToken string `yaml:"api_token"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string `yaml:"embedding_model"`

	// ChatModel is the model identifier used for question answering.
	// Example: "qwen2:1.5b", "gpt-4o-mini"
	ChatModel string `yaml:"chat_model"`

	// AnalysisModel is the model identifier used for sentiment, extraction
	// and urgency calls on the chat host. Defaults to ChatModel when empty.
	AnalysisModel string `yaml:"analysis_model"`

	// GeminiAPIKey enables the Gemini provider when set.
	GeminiAPIKey string `yaml:"gemini_api_key"`

	// GeminiModel is the Gemini generation model.
	GeminiModel string `yaml:"gemini_model"`

	// GeminiEmbeddingModel is the Gemini embedding model.
	GeminiEmbeddingModel string `yaml:"gemini_embedding_model"`

	// EmbeddingProvider selects which provider embeds utterances: "openai" or "gemini".
	EmbeddingProvider string `yaml:"embedding_provider"`

	// EmbeddingDimension fixes the vector size of the knowledge store.
	// Zero learns it from the embedding model on first use.
	EmbeddingDimension int `yaml:"embedding_dimension"`

	// CallTimeout bounds every external generation and embedding call.
	// Zero disables the bound.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// EmbeddingCacheSize is the number of query embeddings kept in memory.
	// Zero disables the cache.
	EmbeddingCacheSize int `yaml:"embedding_cache_size"`

	// EmbeddingCacheTTL is how long a cached embedding stays valid.
	EmbeddingCacheTTL time.Duration `yaml:"embedding_cache_ttl"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithChatHost sets the chat service host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithHost sets both embedding and chat hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ChatHost = host
	}
}

// WithAPIToken sets the bearer token for OpenAI-compatible hosts.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the question answering model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithAnalysisModel sets the model used for transcript analysis calls.
func WithAnalysisModel(model string) ConfigOption {
	return func(c *Config) {
		c.AnalysisModel = model
	}
}

// WithGemini enables the Gemini provider with the given key and model.
// An empty model keeps the default.
func WithGemini(apiKey, model string) ConfigOption {
	return func(c *Config) {
		c.GeminiAPIKey = apiKey
		if model != "" {
			c.GeminiModel = model
		}
	}
}

// WithEmbeddingProvider selects the provider used for embeddings.
func WithEmbeddingProvider(name string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingProvider = name
	}
}

// WithEmbeddingDimension fixes the embedding vector size.
func WithEmbeddingDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimension = dim
	}
}

// WithCallTimeout bounds every external call.
func WithCallTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CallTimeout = d
	}
}

// WithEmbeddingCache configures the query embedding cache.
func WithEmbeddingCache(size int, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.EmbeddingCacheSize = size
		c.EmbeddingCacheTTL = ttl
	}
}

// DefaultConfig returns a Config with sensible defaults for a local Ollama server.
// By default, embedding and chat use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:        defaultHost,
		ChatHost:             defaultHost,
		APIToken:             "none",
		EmbeddingModel:       "all-minilm",
		ChatModel:            "qwen2:1.5b",
		GeminiModel:          "gemini-2.0-flash",
		GeminiEmbeddingModel: "text-embedding-004",
		EmbeddingProvider:    ProviderOpenAI,
		CallTimeout:          30 * time.Second,
		EmbeddingCacheSize:   256,
		EmbeddingCacheTTL:    10 * time.Minute,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithGemini(os.Getenv("GEMINI_API_KEY"), ""),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// LoadConfigFile reads a YAML file over the defaults and then applies opts.
// Keys absent from the file keep their default values.
func LoadConfigFile(path string, opts ...ConfigOption) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ai config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ai config: parse %s: %w", path, err)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}

// GeminiEnabled reports whether a Gemini API key is configured.
func (c *Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.ChatHost = normalizeHost(c.ChatHost)
	if c.AnalysisModel == "" {
		c.AnalysisModel = c.ChatModel
	}
	if c.APIToken == "" {
		c.APIToken = "none"
	}
	if c.EmbeddingProvider == "" {
		c.EmbeddingProvider = ProviderOpenAI
	}
	c.EmbeddingProvider = strings.ToLower(c.EmbeddingProvider)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ChatHost == "" {
		return errors.New("ai config: ChatHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.GeminiEnabled() && c.GeminiModel == "" {
		return errors.New("ai config: GeminiModel is required when GeminiAPIKey is set")
	}
	switch c.EmbeddingProvider {
	case ProviderOpenAI:
	case ProviderGemini:
		if !c.GeminiEnabled() {
			return errors.New("ai config: gemini embeddings require GeminiAPIKey")
		}
		if c.GeminiEmbeddingModel == "" {
			return errors.New("ai config: GeminiEmbeddingModel is required")
		}
	default:
		return fmt.Errorf("ai config: unknown EmbeddingProvider %q", c.EmbeddingProvider)
	}
	if c.EmbeddingDimension < 0 {
		return errors.New("ai config: EmbeddingDimension cannot be negative")
	}
	if c.CallTimeout < 0 {
		return errors.New("ai config: CallTimeout cannot be negative")
	}
	if c.EmbeddingCacheSize < 0 {
		return errors.New("ai config: EmbeddingCacheSize cannot be negative")
	}
	return nil
}
