package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/observability"
)

// DefaultDelay is the pause between consecutive sentiment calls.
const DefaultDelay = 500 * time.Millisecond

const sentimentSystemPrompt = `You are a sentiment analyzer. Analyze the sentiment of the given text.
Respond with ONLY ONE WORD: positive, neutral, or negative.`

// Annotator scores utterances with a generator, one call per utterance.
type Annotator struct {
	generator ai.Generator
	delay     time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// AnnotatorOption configures an Annotator.
type AnnotatorOption func(*Annotator)

// WithDelay sets the pause between calls. Default is DefaultDelay.
func WithDelay(d time.Duration) AnnotatorOption {
	return func(a *Annotator) {
		if d >= 0 {
			a.delay = d
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) AnnotatorOption {
	return func(a *Annotator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records classification failures on m.
func WithMetrics(m *observability.Metrics) AnnotatorOption {
	return func(a *Annotator) {
		if m != nil {
			a.metrics = m
		}
	}
}

// NewAnnotator creates a sentiment Annotator.
func NewAnnotator(generator ai.Generator, opts ...AnnotatorOption) (*Annotator, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	a := &Annotator{
		generator: generator,
		delay:     DefaultDelay,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = observability.NewMetrics()
	}
	a.logger = a.logger.With("component", "sentiment")
	return a, nil
}

// AnnotateSentiment returns copies of utterances with Sentiment set.
// A failed call scores the utterance neutral and annotation continues, so
// the only error returned is the context's.
func (a *Annotator) AnnotateSentiment(ctx context.Context, utterances []core.Utterance) ([]core.Utterance, error) {
	annotated := make([]core.Utterance, len(utterances))
	for i, u := range utterances {
		if i > 0 {
			if err := sleep(ctx, a.delay); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label, err := a.classify(ctx, u.Text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.metrics.RecordClassificationFailure(observability.KindSentiment)
			a.logger.Warn("sentiment classification failed, using neutral",
				"sequence_index", u.SequenceIndex,
				"err", fmt.Errorf("%w: %w", core.ErrClassificationFailure, err))
			label = core.SentimentNeutral
		}
		annotated[i] = u.WithSentiment(label.Score())

		if (i+1)%5 == 0 {
			a.logger.Debug("annotated utterances", "done", i+1, "total", len(utterances))
		}
	}
	return annotated, nil
}

func (a *Annotator) classify(ctx context.Context, text string) (core.SentimentLabel, error) {
	resp, err := a.generator.Generate(ctx, ai.Request{
		Prompt:            fmt.Sprintf("Analyze sentiment: '%s'", text),
		SystemInstruction: sentimentSystemPrompt,
		Temperature:       0.1,
		MaxTokens:         5,
	})
	if err != nil {
		return core.SentimentNeutral, err
	}
	return core.ParseSentimentLabel(resp), nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
