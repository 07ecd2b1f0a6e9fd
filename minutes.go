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


// Package minutes wires the meeting knowledge pipeline together.
//
// An Assistant owns the badger storage, the AI providers, the knowledge
// store and the metrics, and hands out pipelines and answer engines that
// share them.
package minutes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/ai/gemini"
	"github.com/poiesic/minutes/ai/openai"
	"github.com/poiesic/minutes/answer"
	"github.com/poiesic/minutes/ingestion"
	"github.com/poiesic/minutes/insights"
	"github.com/poiesic/minutes/knowledge"
	"github.com/poiesic/minutes/observability"
	"github.com/poiesic/minutes/storage"
	"github.com/poiesic/minutes/storage/badger"
	"github.com/poiesic/minutes/transcript"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoProviders is returned when no AI provider could be configured.
var ErrNoProviders = errors.New("no ai providers configured")

type Assistant struct {
	backend   *badger.Backend
	index     *badger.VectorIndex
	meetings  *badger.MeetingRepository
	providers []ai.AIProvider
	analysis  ai.Generator
	answering []ai.GeneratorEntry
	store     *knowledge.Store
	metrics   *observability.Metrics
	delay     time.Duration
	logger    *slog.Logger
	// base is the unscoped logger handed to components, which add their
	// own component attribute.
	base *slog.Logger
}

// Option configures an Assistant.
type Option func(*options)

type options struct {
	aiConfig       *ai.Config
	inMemory       bool
	providers      []ai.AIProvider
	registerer     prometheus.Registerer
	sentimentDelay time.Duration
	logger         *slog.Logger
}

// WithAIConfig sets the provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithInMemory keeps all data in memory. The path passed to Open is ignored.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithProviders uses the given providers instead of building them from the
// AI configuration. The first provider embeds and analyzes; all of them
// answer questions, in order.
func WithProviders(providers ...ai.AIProvider) Option {
	return func(o *options) {
		o.providers = providers
	}
}

// WithRegisterer registers metrics on reg instead of a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithSentimentDelay sets the pause between sentiment calls.
// Default is transcript.DefaultDelay.
func WithSentimentDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.sentimentDelay = d
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open opens the assistant's storage at filePath and connects its providers.
func Open(ctx context.Context, filePath string, opts ...Option) (*Assistant, error) {
	o := &options{
		aiConfig:       ai.DefaultConfig(),
		sentimentDelay: transcript.DefaultDelay,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	backend, err := badger.OpenBackend(filePath, o.inMemory)
	if err != nil {
		return nil, err
	}

	index, err := badger.NewVectorIndex(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	meetings, err := badger.NewMeetingRepository(backend)
	if err != nil {
		index.Close()
		backend.Close()
		return nil, err
	}

	metrics := observability.NewMetrics()
	if o.registerer != nil {
		metrics = observability.NewMetricsWith(o.registerer)
	}

	a := &Assistant{
		backend:  backend,
		index:    index,
		meetings: meetings,
		metrics:  metrics,
		delay:    o.sentimentDelay,
		logger:   o.logger.With("component", "assistant"),
		base:     o.logger,
	}

	embedder, err := a.connect(ctx, o)
	if err != nil {
		a.Close()
		return nil, err
	}

	storeOpts := []knowledge.Option{
		knowledge.WithLogger(o.logger),
		knowledge.WithMetrics(metrics),
	}
	if dim := o.aiConfig.EmbeddingDimension; dim > 0 {
		storeOpts = append(storeOpts, knowledge.WithDimension(dim))
	}
	a.store, err = knowledge.NewStore(index, embedder, storeOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// connect sets up providers and generator chains, returning the embedder.
func (a *Assistant) connect(ctx context.Context, o *options) (ai.Embedder, error) {
	cfg := o.aiConfig
	if len(o.providers) > 0 {
		a.providers = o.providers
		for _, p := range o.providers {
			a.answering = append(a.answering, ai.GeneratorEntry{Name: p.Name(), Generator: p.Generator()})
		}
		a.analysis = o.providers[0].Generator()
		return o.providers[0].Embedder(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	local, err := openai.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	a.providers = append(a.providers, local)

	analysisModel, err := openai.NewGenerator(cfg, cfg.AnalysisModel)
	if err != nil {
		return nil, err
	}
	localAnalysis := ai.GeneratorEntry{Name: local.Name(), Generator: ai.TimeoutGenerator(analysisModel, cfg.CallTimeout)}
	localAnswer := ai.GeneratorEntry{Name: local.Name(), Generator: ai.TimeoutGenerator(local.Generator(), cfg.CallTimeout)}

	embedder := local.Embedder()
	// The hosted provider analyzes first; the local model answers first.
	if cfg.GeminiEnabled() {
		hosted, err := gemini.NewProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.providers = append(a.providers, hosted)
		hostedEntry := ai.GeneratorEntry{Name: hosted.Name(), Generator: ai.TimeoutGenerator(hosted.Generator(), cfg.CallTimeout)}

		a.analysis = ai.NewFallbackGenerator(o.logger, hostedEntry, localAnalysis)
		a.answering = []ai.GeneratorEntry{localAnswer, hostedEntry}
		if cfg.EmbeddingProvider == ai.ProviderGemini {
			embedder = hosted.Embedder()
		}
	} else {
		a.analysis = localAnalysis.Generator
		a.answering = []ai.GeneratorEntry{localAnswer}
	}

	embedder = ai.TimeoutEmbedder(embedder, cfg.CallTimeout)
	return ai.NewCachedEmbedder(embedder, cfg.EmbeddingCacheSize, cfg.EmbeddingCacheTTL), nil
}

// Close releases providers and storage.
func (a *Assistant) Close() error {
	for _, p := range a.providers {
		if err := p.Close(); err != nil {
			a.logger.Error("error closing AI provider", "provider", p.Name(), "err", err)
		}
	}

	if err := a.meetings.Close(); err != nil {
		a.logger.Error("error closing meeting repository", "err", err)
		return err
	}
	if err := a.index.Close(); err != nil {
		a.logger.Error("error closing vector index", "err", err)
		return err
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Meetings returns the meeting registry.
func (a *Assistant) Meetings() storage.MeetingRepository {
	return a.meetings
}

// KnowledgeStore returns the vector-backed utterance store.
func (a *Assistant) KnowledgeStore() *knowledge.Store {
	return a.store
}

// Metrics returns the metrics shared by every component.
func (a *Assistant) Metrics() *observability.Metrics {
	return a.metrics
}

// Providers returns the names of the connected providers in answer order.
func (a *Assistant) Providers() []string {
	names := make([]string, len(a.answering))
	for i, e := range a.answering {
		names[i] = e.Name
	}
	return names
}

// NewPipeline creates a meeting analysis pipeline on the shared storage.
func (a *Assistant) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	if len(a.providers) == 0 {
		return nil, ErrNoProviders
	}

	annotator, err := transcript.NewAnnotator(a.analysis,
		transcript.WithDelay(a.delay),
		transcript.WithLogger(a.base),
		transcript.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}

	extractor, err := insights.NewExtractor(a.analysis,
		insights.WithLogger(a.base),
		insights.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}

	base := []ingestion.Option{
		ingestion.WithLogger(a.base),
		ingestion.WithMetrics(a.metrics),
	}
	return ingestion.NewPipeline(a.meetings, annotator, extractor, a.store, append(base, opts...)...)
}

// NewEngine creates an answer engine over the shared storage.
func (a *Assistant) NewEngine(opts ...answer.Option) (*answer.Engine, error) {
	if len(a.answering) == 0 {
		return nil, ErrNoProviders
	}

	base := []answer.Option{
		answer.WithLogger(a.base),
		answer.WithMetrics(a.metrics),
	}
	return answer.NewEngine(a.meetings, a.store, a.answering, append(base, opts...)...)
}
