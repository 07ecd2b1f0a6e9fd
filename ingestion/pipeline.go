package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/observability"
	"github.com/poiesic/minutes/storage"
	"github.com/poiesic/minutes/transcript"
)

// Pipeline orchestrates the analysis of meeting transcripts.
// Different meetings may be analyzed concurrently on its worker pool.
type Pipeline struct {
	meetings   storage.MeetingRepository
	segmenter  *transcript.Segmenter
	processors []processor
	pool       *ants.Pool
	pending    sync.WaitGroup
	logger     *slog.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of meetings analyzed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics analyses are recorded on.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) error {
		if m != nil {
			p.metrics = m
		}
		return nil
	}
}

// WithSegmenter replaces the default transcript segmenter.
func WithSegmenter(s *transcript.Segmenter) Option {
	return func(p *Pipeline) error {
		if s != nil {
			p.segmenter = s
		}
		return nil
	}
}

// WithClock sets the time source used for meeting IDs and creation times.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now != nil {
			p.now = now
		}
		return nil
	}
}

// NewPipeline creates a new meeting analysis pipeline.
func NewPipeline(
	meetings storage.MeetingRepository,
	annotator Annotator,
	extractor Extractor,
	ingester Ingester,
	opts ...Option,
) (*Pipeline, error) {
	if meetings == nil {
		return nil, ErrMeetingRepositoryRequired
	}
	if annotator == nil {
		return nil, ErrAnnotatorRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if ingester == nil {
		return nil, ErrIngesterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		meetings:  meetings,
		segmenter: transcript.NewSegmenter(),
		pool:      pool,
		logger:    slog.Default(),
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	if p.metrics == nil {
		p.metrics = observability.NewMetrics()
	}
	p.logger = p.logger.With("component", "pipeline")

	// Order matters: insights and embeddings read the annotated utterances.
	p.processors = []processor{
		&sentimentProcessor{annotator: annotator},
		&insightsProcessor{extractor: extractor},
		&embeddingProcessor{ingester: ingester, logger: p.logger},
		&registryProcessor{meetings: meetings},
	}

	return p, nil
}

// AnalyzeOptions holds optional parameters for an analysis.
type AnalyzeOptions struct {
	MeetingID string // Generated from the current time if empty
	Replace   bool   // Re-analyze a meeting that is already registered
}

// Analyze runs the full analysis of one transcript and registers the result.
// It blocks until every stage has finished.
func (p *Pipeline) Analyze(ctx context.Context, raw string, opts AnalyzeOptions) (*core.MeetingRecord, error) {
	if opts.MeetingID == "" {
		opts.MeetingID = core.NewMeetingID(p.now().UTC())
	}
	record, err := p.analyze(ctx, raw, opts)
	p.metrics.RecordAnalysis(err)
	if err != nil {
		p.logger.Error("analysis failed", "meeting_id", opts.MeetingID, "err", err)
		return nil, err
	}
	return record, nil
}

func (p *Pipeline) analyze(ctx context.Context, raw string, opts AnalyzeOptions) (*core.MeetingRecord, error) {
	utterances := p.segmenter.Segment(raw)
	if len(utterances) == 0 {
		return nil, ErrEmptyTranscript
	}

	now := p.now().UTC()
	meetingID := opts.MeetingID

	if err := p.claim(ctx, meetingID, opts.Replace); err != nil {
		return nil, err
	}
	defer p.unclaim(meetingID)

	a := &analysis{record: &core.MeetingRecord{
		MeetingID:  meetingID,
		CreatedAt:  now,
		Utterances: utterances,
	}}

	start := time.Now()
	for _, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stageStart := time.Now()
		if err := proc.process(ctx, a); err != nil {
			return nil, fmt.Errorf("%s stage for %s: %w", proc.name(), meetingID, err)
		}
		p.logger.Debug("stage complete", "meeting_id", meetingID, "stage", proc.name(), "elapsed", time.Since(stageStart))
	}

	p.logger.Info("meeting analyzed",
		"meeting_id", meetingID,
		"utterances", len(a.record.Utterances),
		"action_items", len(a.record.Insights.ActionItems),
		"elapsed", time.Since(start))
	return a.record, nil
}

// claim reserves a meeting ID for the duration of an analysis.
func (p *Pipeline) claim(ctx context.Context, meetingID string, replace bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.inflight[meetingID]; busy {
		return fmt.Errorf("%w: %s is being analyzed", ErrMeetingExists, meetingID)
	}
	if !replace {
		_, err := p.meetings.Get(ctx, meetingID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrMeetingExists, meetingID)
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
	}
	p.inflight[meetingID] = struct{}{}
	return nil
}

func (p *Pipeline) unclaim(meetingID string) {
	p.mu.Lock()
	delete(p.inflight, meetingID)
	p.mu.Unlock()
}

// Submit queues a transcript for analysis on the worker pool and returns
// the meeting ID it will be registered under. The callback, if not nil,
// receives the result once the analysis finishes.
func (p *Pipeline) Submit(ctx context.Context, raw string, opts AnalyzeOptions, callback func(*core.MeetingRecord, error)) (string, error) {
	if opts.MeetingID == "" {
		opts.MeetingID = core.NewMeetingID(p.now().UTC())
	}

	p.pending.Add(1)
	err := p.pool.Submit(func() {
		defer p.pending.Done()
		record, err := p.Analyze(ctx, raw, opts)
		if callback != nil {
			callback(record, err)
		}
	})
	if err != nil {
		p.pending.Done()
		return "", err
	}
	return opts.MeetingID, nil
}

// Wait blocks until every submitted analysis has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
