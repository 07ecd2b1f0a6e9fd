// Package observability holds the Prometheus metrics shared by the meeting
// pipeline components.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Classification kinds.
const (
	KindSentiment = "sentiment"
	KindUrgency   = "urgency"
)

// Outcomes recorded against retrieval and generation attempts.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the meeting pipeline.
type Metrics struct {
	// Degraded-path metrics
	ClassificationFailures *prometheus.CounterVec
	ParseFailures          prometheus.Counter
	ScopeViolations        prometheus.Counter

	// Retrieval metrics
	RetrievalsTotal *prometheus.CounterVec

	// Generation metrics
	GenerationAttempts *prometheus.CounterVec
	GenerationSeconds  *prometheus.HistogramVec

	// Ingestion metrics
	IngestedRecords  prometheus.Counter
	MeetingsAnalyzed *prometheus.CounterVec
}

// NewMetrics creates metrics on a private registry.
// Components use this when no shared Metrics is supplied.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

// NewMetricsWith creates metrics registered on reg.
// Registering twice on the same registerer panics, so share the returned
// Metrics between components instead of calling this per component.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ClassificationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_classification_failures_total",
				Help: "Classification calls that failed and fell back to the default label",
			},
			[]string{"kind"},
		),
		ParseFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "minutes_extraction_parse_failures_total",
				Help: "Insight extractions that produced no parseable JSON",
			},
		),
		ScopeViolations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "minutes_scope_violations_total",
				Help: "Retrieved records dropped because they belong to another meeting",
			},
		),
		RetrievalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_retrievals_total",
				Help: "Retrieval attempts by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		GenerationAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_generation_attempts_total",
				Help: "Answer generation attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		GenerationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minutes_generation_seconds",
				Help:    "Answer generation latency",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30, 60},
			},
			[]string{"provider"},
		),
		IngestedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "minutes_ingested_records_total",
				Help: "Vector records written to the knowledge store",
			},
		),
		MeetingsAnalyzed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_meetings_analyzed_total",
				Help: "Meeting analyses by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordClassificationFailure counts a failed sentiment or urgency call.
func (m *Metrics) RecordClassificationFailure(kind string) {
	m.ClassificationFailures.WithLabelValues(kind).Inc()
}

// RecordRetrieval counts one retrieval strategy attempt.
func (m *Metrics) RecordRetrieval(strategy string, err error) {
	m.RetrievalsTotal.WithLabelValues(strategy, outcome(err)).Inc()
}

// RecordGeneration counts one generation attempt and its latency.
func (m *Metrics) RecordGeneration(provider string, elapsed time.Duration, err error) {
	m.GenerationAttempts.WithLabelValues(provider, outcome(err)).Inc()
	m.GenerationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordAnalysis counts a finished meeting analysis.
func (m *Metrics) RecordAnalysis(err error) {
	m.MeetingsAnalyzed.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
