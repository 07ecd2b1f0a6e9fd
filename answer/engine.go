// Package answer answers questions about one meeting with retrieval
// augmented generation.
//
// A question first passes a topicality Policy. Accepted questions are
// answered from a prompt holding the full transcript, the extracted
// insights and the excerpts most similar to the question. Generation runs
// over a fallback chain of generators; only when every generator fails is
// an error returned.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/knowledge"
	"github.com/poiesic/minutes/observability"
	"github.com/poiesic/minutes/storage"
)

// DefaultTopK is the number of excerpts retrieved per question.
const DefaultTopK = 5

// Retriever finds the records of a meeting most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query, meetingID string, topK int) (*knowledge.Retrieval, error)
}

// Response is the engine's answer to one question.
type Response struct {
	// Text is the generated answer, or OffTopicResponse.
	Text string
	// OnTopic reports whether the question passed the policy.
	OnTopic bool
	// Reason is the policy's explanation.
	Reason string
	// Strategy is the retrieval path used; empty when nothing was retrieved.
	Strategy knowledge.Strategy
	// Excerpts are the retrieved records placed in the prompt.
	Excerpts []core.ScoredRecord
	// Provider names the generator that produced Text.
	Provider string
}

// Engine answers questions about stored meetings.
type Engine struct {
	meetings  storage.MeetingRepository
	retriever Retriever
	generator *ai.FallbackGenerator
	policy    Policy
	topK      int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the topicality policy. Default is DefaultPolicy().
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithTopK sets how many excerpts are retrieved. Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records generation attempts on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine creates an Engine. Generators are tried in the order given.
func NewEngine(meetings storage.MeetingRepository, retriever Retriever, generators []ai.GeneratorEntry, opts ...Option) (*Engine, error) {
	if meetings == nil {
		return nil, ErrMeetingRepositoryRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	e := &Engine{
		meetings:  meetings,
		retriever: retriever,
		policy:    DefaultPolicy(),
		topK:      DefaultTopK,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = observability.NewMetrics()
	}
	// the chain scopes its own logger
	e.generator = ai.NewFallbackGenerator(e.logger, generators...)
	if len(e.generator.Names()) == 0 {
		return nil, ErrGeneratorRequired
	}
	e.logger = e.logger.With("component", "answer")
	return e, nil
}

// Answer answers question about the stored meeting meetingID.
func (e *Engine) Answer(ctx context.Context, question, meetingID string) (*Response, error) {
	meeting, err := e.meetings.Get(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("load meeting %s: %w", meetingID, err)
	}
	return e.AnswerWithContext(ctx, question, meeting)
}

// AnswerWithContext answers question about meeting. Off-topic questions get
// OffTopicResponse without retrieval or generation. A failed retrieval
// leaves the excerpts out; failed generation returns an error wrapping
// core.ErrGenerationFailure.
func (e *Engine) AnswerWithContext(ctx context.Context, question string, meeting *core.MeetingRecord) (*Response, error) {
	if meeting == nil {
		return nil, ErrMeetingRequired
	}

	verdict := e.policy.Evaluate(question, meeting)
	if !verdict.OnTopic {
		e.logger.Info("rejected off-topic question", "meeting_id", meeting.MeetingID, "reason", verdict.Reason)
		return &Response{Text: OffTopicResponse, OnTopic: false, Reason: verdict.Reason}, nil
	}

	resp := &Response{OnTopic: true, Reason: verdict.Reason}

	retrieval, err := e.retriever.Retrieve(ctx, question, meeting.MeetingID, e.topK)
	switch {
	case err == nil:
		resp.Strategy = retrieval.Strategy
		resp.Excerpts = retrieval.Hits
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, core.ErrRetrievalFailure):
		e.logger.Warn("answering without excerpts", "meeting_id", meeting.MeetingID, "err", err)
	default:
		e.logger.Warn("answering without excerpts", "meeting_id", meeting.MeetingID,
			"err", fmt.Errorf("%w: %w", core.ErrRetrievalFailure, err))
	}

	req := ai.Request{
		Prompt:            buildPrompt(question, meeting, resp.Excerpts),
		SystemInstruction: systemInstruction,
		Temperature:       0.3,
		MaxTokens:         500,
	}
	text, provider, err := e.generator.GenerateNamed(ctx, req, func(name string, elapsed time.Duration, err error) {
		e.metrics.RecordGeneration(name, elapsed, err)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrGenerationFailure, err)
	}

	resp.Text = text
	resp.Provider = provider
	e.logger.Debug("answered question",
		"meeting_id", meeting.MeetingID,
		"provider", provider,
		"strategy", resp.Strategy,
		"excerpts", len(resp.Excerpts))
	return resp, nil
}
