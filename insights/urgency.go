package insights

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/observability"
)

// UrgencyClassifier assigns an urgency tier to action items.
type UrgencyClassifier struct {
	generator ai.Generator
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewUrgencyClassifier creates an UrgencyClassifier.
func NewUrgencyClassifier(generator ai.Generator, opts ...Option) (*UrgencyClassifier, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	o := newOptions(opts)
	return newUrgencyClassifier(generator, o), nil
}

func newUrgencyClassifier(generator ai.Generator, o *options) *UrgencyClassifier {
	return &UrgencyClassifier{
		generator: generator,
		logger:    o.logger.With("component", "urgency"),
		metrics:   o.metrics,
	}
}

// Classify asks the model for the urgency of one task. Output that is not
// exactly one tier maps to medium; only a failed call returns an error.
func (c *UrgencyClassifier) Classify(ctx context.Context, task, owner, deadline, reason string) (core.Urgency, error) {
	resp, err := c.generator.Generate(ctx, ai.Request{
		Prompt:            buildUrgencyPrompt(task, owner, deadline, reason),
		SystemInstruction: urgencySystemPrompt,
		Temperature:       0.2,
		MaxTokens:         10,
	})
	if err != nil {
		return core.UrgencyMedium, fmt.Errorf("%w: %w", core.ErrClassificationFailure, err)
	}
	return core.ParseUrgency(resp), nil
}

// finalize classifies a draft and builds the finished item. A failed
// classification falls back to medium.
func (c *UrgencyClassifier) finalize(ctx context.Context, d actionItemDraft) core.ActionItem {
	deadline := "N/A"
	if dl := d.deadline(); dl != nil {
		deadline = *dl
	}

	urgency, err := c.Classify(ctx, d.task(), d.owner(), deadline, d.reason())
	if err != nil {
		c.metrics.RecordClassificationFailure(observability.KindUrgency)
		c.logger.Warn("urgency classification failed, using medium", "task", d.task(), "err", err)
	}
	return d.finalize(urgency)
}
