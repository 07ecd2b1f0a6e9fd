package insights

import (
	"log/slog"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/observability"
)

type options struct {
	logger           *slog.Logger
	metrics          *observability.Metrics
	urgencyGenerator ai.Generator
	parseAttempts    int
}

// Option configures an Extractor or UrgencyClassifier.
type Option func(*options)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records parse and classification failures on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithUrgencyGenerator classifies urgency with gen instead of the
// extraction generator.
func WithUrgencyGenerator(gen ai.Generator) Option {
	return func(o *options) {
		o.urgencyGenerator = gen
	}
}

// WithParseAttempts sets how many extraction calls are made before falling
// back to the default insights. Default is 1.
func WithParseAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parseAttempts = n
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:        slog.Default(),
		parseAttempts: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observability.NewMetrics()
	}
	return o
}
