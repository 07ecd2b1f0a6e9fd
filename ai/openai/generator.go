package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/minutes/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrNoChoices is returned when a completion carries no choices.
var ErrNoChoices = errors.New("openai: response has no choices")

// Generator implements ai.Generator using an OpenAI-compatible chat API.
type Generator struct {
	client *openai.LLM
	model  string
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config, model string) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if model == "" {
		model = config.ChatModel
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "openai-generator", "model", model),
	}, nil
}

// NewGenerator creates a chat generator for model on the configured chat host.
// An empty model selects config.ChatModel.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config, model string) (ai.Generator, error) {
	return newGenerator(config, model)
}

// Generate sends the system instruction and prompt as a two-message chat.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	var messages []llms.MessageContent
	if req.SystemInstruction != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.SystemInstruction)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	g.logger.Debug("generating completion", "prompt_length", len(req.Prompt), "temperature", req.Temperature)
	response, err := g.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		g.logger.Error("completion failed", "err", err)
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", ErrNoChoices
	}
	return response.Choices[0].Content, nil
}
