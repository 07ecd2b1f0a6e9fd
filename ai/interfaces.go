package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Identical text must produce an identical vector for a fixed model.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Request is a single stateless completion request.
type Request struct {
	// Prompt is the user message.
	Prompt string

	// SystemInstruction constrains the model's behavior. Optional.
	SystemInstruction string

	// Temperature controls sampling randomness. Low values favor extractive answers.
	Temperature float64

	// MaxTokens bounds the completion length. Zero leaves the provider default.
	MaxTokens int

	// JSON asks the provider for a JSON object response when it supports it.
	JSON bool
}

// Generator produces one-shot text completions.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the completion text for the request.
	// Returns an error if the provider could not produce a completion.
	Generate(ctx context.Context, req Request) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
