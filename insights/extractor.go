package insights

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/observability"
)

// ParseFailureSummary is the executive summary of the default insights
// returned when the model output cannot be parsed.
const ParseFailureSummary = "Error parsing summary"

// maxLoggedResponse bounds how much of an unparseable response is logged.
const maxLoggedResponse = 500

// Extractor turns a transcript into MeetingInsights.
type Extractor struct {
	generator  ai.Generator
	classifier *UrgencyClassifier
	attempts   int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewExtractor creates an Extractor. Urgency is classified with the same
// generator unless WithUrgencyGenerator is given.
func NewExtractor(generator ai.Generator, opts ...Option) (*Extractor, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	o := newOptions(opts)

	urgencyGenerator := o.urgencyGenerator
	if urgencyGenerator == nil {
		urgencyGenerator = generator
	}

	return &Extractor{
		generator:  generator,
		classifier: newUrgencyClassifier(urgencyGenerator, o),
		attempts:   o.parseAttempts,
		logger:     o.logger.With("component", "extractor"),
		metrics:    o.metrics,
	}, nil
}

// DefaultInsights returns the neutral insights used when extraction fails.
func DefaultInsights() core.MeetingInsights {
	return core.MeetingInsights{
		ExecutiveSummary: ParseFailureSummary,
		ActionItems:      []core.ActionItem{},
		Topics:           []string{},
		NamedEntities:    []string{},
		OverallSentiment: core.SentimentNeutral,
	}
}

// ExtractInsights extracts a summary, action items, topics, entities and
// overall sentiment from utterances. Model failures degrade to
// DefaultInsights; the only error returned is the context's.
func (e *Extractor) ExtractInsights(ctx context.Context, utterances []core.Utterance) (core.MeetingInsights, error) {
	if len(utterances) == 0 {
		return core.MeetingInsights{
			ActionItems:      []core.ActionItem{},
			Topics:           []string{},
			NamedEntities:    []string{},
			OverallSentiment: core.SentimentNeutral,
		}, nil
	}

	raw, err := e.generateInsights(ctx, utterances)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.MeetingInsights{}, ctxErr
		}
		e.metrics.ParseFailures.Inc()
		e.logger.Warn("insight extraction failed, using defaults", "err", err)
		return DefaultInsights(), nil
	}

	insights := core.MeetingInsights{
		ExecutiveSummary: string(raw.ExecutiveSummary),
		ActionItems:      make([]core.ActionItem, 0, len(raw.ActionItems)),
		Topics:           dedupe(raw.Topics),
		NamedEntities:    dedupe(raw.NamedEntities),
		OverallSentiment: core.ParseSentimentLabel(string(raw.OverallSentiment)),
	}

	for i, draft := range raw.ActionItems {
		if err := ctx.Err(); err != nil {
			return core.MeetingInsights{}, err
		}
		e.logger.Debug("classifying urgency", "item", i+1, "total", len(raw.ActionItems))
		insights.ActionItems = append(insights.ActionItems, e.classifier.finalize(ctx, draft))
	}

	e.logger.Info("extracted insights",
		"action_items", len(insights.ActionItems),
		"topics", len(insights.Topics),
		"sentiment", insights.OverallSentiment)
	return insights, nil
}

// generateInsights calls the model until its output parses or attempts run out.
func (e *Extractor) generateInsights(ctx context.Context, utterances []core.Utterance) (*rawInsights, error) {
	req := ai.Request{
		Prompt:            buildExtractionPrompt(utterances),
		SystemInstruction: extractionSystemPrompt,
		Temperature:       0.2,
		MaxTokens:         1500,
		JSON:              true,
	}

	var lastErr error
	for attempt := 0; attempt < e.attempts; attempt++ {
		resp, err := e.generator.Generate(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// a failed call is not retried
			return nil, fmt.Errorf("%w: generation: %w", core.ErrParseFailure, err)
		}

		raw, err := parseInsights(resp)
		if err == nil {
			return raw, nil
		}
		lastErr = fmt.Errorf("%w: %w", core.ErrParseFailure, err)
		e.logger.Warn("error parsing extraction response",
			"attempt", attempt+1,
			"response", truncate(resp, maxLoggedResponse),
			"err", err)
	}
	return nil, lastErr
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
