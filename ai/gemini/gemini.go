// Package gemini provides AI service implementations backed by Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/minutes/ai"
	"google.golang.org/genai"
)

var (
	// ErrAPIKeyRequired is returned when no Gemini API key is configured.
	ErrAPIKeyRequired = errors.New("gemini: api key is required")

	// ErrNoEmbedding is returned when the service answers with fewer vectors than requested.
	ErrNoEmbedding = errors.New("gemini: no embedding values returned")
)

// Provider implements ai.AIProvider on a single genai client.
type Provider struct {
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// NewProvider creates a Gemini provider from config.GeminiAPIKey, config.GeminiModel
// and config.GeminiEmbeddingModel.
//
// Returns ai.AIProvider interface to enforce abstraction.
func NewProvider(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !config.GeminiEnabled() {
		return nil, ErrAPIKeyRequired
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(config.GeminiAPIKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Provider{
		embedder: &Embedder{
			client: client,
			model:  config.GeminiEmbeddingModel,
			logger: slog.Default().With("component", "gemini-embedder"),
		},
		generator: &Generator{
			client: client,
			model:  config.GeminiModel,
			logger: slog.Default().With("component", "gemini-generator", "model", config.GeminiModel),
		},
		logger: slog.Default().With("component", "gemini-provider"),
	}, nil
}

// Name identifies the provider in logs and metrics.
func (p *Provider) Name() string {
	return "gemini"
}

// Embedder returns the Gemini embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the Gemini generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the genai client holds no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("closing Gemini provider")
	return nil
}

// Generator implements ai.Generator with the Gemini models API.
type Generator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// Generate sends one user turn with the system instruction in the request config.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	temperature := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}}
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	g.logger.Debug("generating completion", "prompt_length", len(req.Prompt))
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		g.logger.Error("completion failed", "err", err)
		return "", err
	}
	return resp.Text(), nil
}

// Embedder implements ai.Embedder with the Gemini models API.
type Embedder struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds texts in one request, one content per text.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	e.logger.Debug("generating embeddings", "count", len(texts))
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d for %d texts", ErrNoEmbedding, len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: index %d", ErrNoEmbedding, i)
		}
		out[i] = emb.Values
	}
	return out, nil
}
