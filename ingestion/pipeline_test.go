package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/ai/mock"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/insights"
	"github.com/poiesic/minutes/knowledge"
	"github.com/poiesic/minutes/observability"
	"github.com/poiesic/minutes/storage"
	"github.com/poiesic/minutes/storage/badger"
	"github.com/poiesic/minutes/transcript"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const standup = `Alice: Morning. Where are we on the quarterly report?
Bob: I'll send the quarterly report to the board by Friday.
Carol: The numbers look great this quarter.
Alice: Perfect, thanks both.`

const extractionResponse = `{
  "executive_summary": "The team confirmed the quarterly report timeline.",
  "action_items": [
    {"task": "Send quarterly report to the board", "owner": "Bob", "deadline": "Friday", "urgency_reason": "Board meeting next week", "tags": ["communication"]}
  ],
  "topics_discussed": ["quarterly report"],
  "named_entities": ["Alice", "Bob", "Carol"],
  "overall_sentiment": "positive"
}`

// scriptedGenerator answers every prompt kind the pipeline issues.
func scriptedGenerator() *mock.MockGenerator {
	return &mock.MockGenerator{
		GenerateFunc: func(_ context.Context, req ai.Request) (string, error) {
			switch {
			case strings.HasPrefix(req.Prompt, "Analyze sentiment"):
				return "positive", nil
			case strings.HasPrefix(req.Prompt, "Determine urgency"):
				return "high", nil
			default:
				return extractionResponse, nil
			}
		},
	}
}

type fixture struct {
	pipeline *Pipeline
	meetings storage.MeetingRepository
	store    *knowledge.Store
	metrics  *observability.Metrics
}

func setupPipeline(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	index, meetings, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		meetings.Close()
		backend.Close()
	})

	gen := scriptedGenerator()
	annotator, err := transcript.NewAnnotator(gen, transcript.WithDelay(0))
	require.NoError(t, err)
	extractor, err := insights.NewExtractor(gen)
	require.NoError(t, err)
	store, err := knowledge.NewStore(index, mock.NewMockEmbedder())
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	opts = append([]Option{WithMetrics(metrics)}, opts...)
	p, err := NewPipeline(meetings, annotator, extractor, store, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return &fixture{pipeline: p, meetings: meetings, store: store, metrics: metrics}
}

// stubAnnotator passes utterances through unchanged.
type stubAnnotator struct{}

func (stubAnnotator) AnnotateSentiment(_ context.Context, utterances []core.Utterance) ([]core.Utterance, error) {
	return utterances, nil
}

// stubExtractor returns fixed insights, optionally blocking until released.
type stubExtractor struct {
	release chan struct{}
	err     error
}

func (s *stubExtractor) ExtractInsights(ctx context.Context, _ []core.Utterance) (core.MeetingInsights, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return core.MeetingInsights{}, ctx.Err()
		}
	}
	if s.err != nil {
		return core.MeetingInsights{}, s.err
	}
	return insights.DefaultInsights(), nil
}

// stubIngester reports every utterance as stored.
type stubIngester struct {
	err error
}

func (s stubIngester) Ingest(_ context.Context, utterances []core.Utterance, _ string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(utterances), nil
}

func setupStubPipeline(t *testing.T, extractor Extractor, ingester Ingester, opts ...Option) (*Pipeline, storage.MeetingRepository) {
	t.Helper()
	index, meetings, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		meetings.Close()
		backend.Close()
	})

	p, err := NewPipeline(meetings, stubAnnotator{}, extractor, ingester, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p, meetings
}

func TestNewPipeline_Validation(t *testing.T) {
	_, meetings, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	tests := []struct {
		name      string
		meetings  storage.MeetingRepository
		annotator Annotator
		extractor Extractor
		ingester  Ingester
		want      error
	}{
		{"missing meetings", nil, stubAnnotator{}, &stubExtractor{}, stubIngester{}, ErrMeetingRepositoryRequired},
		{"missing annotator", meetings, nil, &stubExtractor{}, stubIngester{}, ErrAnnotatorRequired},
		{"missing extractor", meetings, stubAnnotator{}, nil, stubIngester{}, ErrExtractorRequired},
		{"missing ingester", meetings, stubAnnotator{}, &stubExtractor{}, nil, ErrIngesterRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(tt.meetings, tt.annotator, tt.extractor, tt.ingester)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	clock := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	f := setupPipeline(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	record, err := f.pipeline.Analyze(ctx, standup, AnalyzeOptions{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(record.MeetingID, "mtg_20250314_093000_"))
	assert.Equal(t, clock, record.CreatedAt)
	require.Len(t, record.Utterances, 4)
	for _, u := range record.Utterances {
		require.NotNil(t, u.Sentiment)
		assert.InDelta(t, core.PositiveScore, *u.Sentiment, 1e-9)
	}
	assert.Equal(t, 4, record.StoredCount)

	require.Len(t, record.Insights.ActionItems, 1)
	item := record.Insights.ActionItems[0]
	assert.Equal(t, "Bob", item.Owner)
	assert.Equal(t, core.UrgencyHigh, item.Urgency)
	assert.Equal(t, core.SentimentPositive, record.Insights.OverallSentiment)

	stored, err := f.meetings.Get(ctx, record.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, record.Insights, stored.Insights)

	retrieval, err := f.store.Retrieve(ctx, "quarterly report", record.MeetingID, 2)
	require.NoError(t, err)
	assert.Len(t, retrieval.Hits, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MeetingsAnalyzed.WithLabelValues(observability.OutcomeSuccess)))
}

func TestAnalyze_EmptyTranscript(t *testing.T) {
	f := setupPipeline(t)

	_, err := f.pipeline.Analyze(context.Background(), "no speakers here\n\n", AnalyzeOptions{})
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MeetingsAnalyzed.WithLabelValues(observability.OutcomeFailure)))
}

func TestAnalyze_ExistingMeeting(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	_, err := f.pipeline.Analyze(ctx, standup, AnalyzeOptions{MeetingID: "weekly"})
	require.NoError(t, err)

	_, err = f.pipeline.Analyze(ctx, "Alice: Short one.", AnalyzeOptions{MeetingID: "weekly"})
	assert.ErrorIs(t, err, ErrMeetingExists)

	replaced, err := f.pipeline.Analyze(ctx, "Alice: Short one.", AnalyzeOptions{MeetingID: "weekly", Replace: true})
	require.NoError(t, err)
	assert.Len(t, replaced.Utterances, 1)

	stored, err := f.meetings.Get(ctx, "weekly")
	require.NoError(t, err)
	assert.Len(t, stored.Utterances, 1)

	info, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Count)
}

func TestAnalyze_StageFailure(t *testing.T) {
	tests := []struct {
		name      string
		extractor Extractor
		ingester  Ingester
		stage     string
	}{
		{"insights", &stubExtractor{err: errors.New("boom")}, stubIngester{}, "insights stage"},
		{"embedding", &stubExtractor{}, stubIngester{err: knowledge.ErrBatchFailed}, "embedding stage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, meetings := setupStubPipeline(t, tt.extractor, tt.ingester)
			ctx := context.Background()

			_, err := p.Analyze(ctx, standup, AnalyzeOptions{MeetingID: "m1"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.stage)

			_, err = meetings.Get(ctx, "m1")
			assert.ErrorIs(t, err, storage.ErrNotFound, "failed analyses are not registered")
		})
	}
}

func TestAnalyze_FailureLogsGeneratedMeetingID(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	clock := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
	p, _ := setupStubPipeline(t, &stubExtractor{err: errors.New("boom")}, stubIngester{},
		WithLogger(logger),
		WithClock(func() time.Time { return clock }))

	_, err := p.Analyze(context.Background(), standup, AnalyzeOptions{})
	require.Error(t, err)

	assert.Contains(t, logs.String(), "meeting_id=mtg_20250304_093000_")
	assert.NotContains(t, logs.String(), `meeting_id=""`)
	assert.Equal(t, 1, strings.Count(logs.String(), "component="), "one component attribute per line")
}

func TestAnalyze_Cancelled(t *testing.T) {
	p, _ := setupStubPipeline(t, &stubExtractor{}, stubIngester{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Analyze(ctx, standup, AnalyzeOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmit_Concurrent(t *testing.T) {
	f := setupPipeline(t, WithPoolSize(4))
	ctx := context.Background()

	var mu sync.Mutex
	results := make(map[string]*core.MeetingRecord)
	ids := make([]string, 0, 6)
	for i := range 6 {
		id, err := f.pipeline.Submit(ctx, standup, AnalyzeOptions{MeetingID: fmt.Sprintf("m%d", i)},
			func(record *core.MeetingRecord, err error) {
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				results[record.MeetingID] = record
				mu.Unlock()
			})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	f.pipeline.Wait()

	require.Len(t, results, 6)
	for _, id := range ids {
		assert.Equal(t, 4, results[id].StoredCount)
	}

	listed, err := f.meetings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 6)

	info, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, info.Count)
}

func TestSubmit_GeneratesMeetingID(t *testing.T) {
	p, meetings := setupStubPipeline(t, &stubExtractor{}, stubIngester{})

	id, err := p.Submit(context.Background(), standup, AnalyzeOptions{}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "mtg_"))
	p.Wait()

	_, err = meetings.Get(context.Background(), id)
	assert.NoError(t, err)
}

func TestSubmit_RejectsDuplicateInFlight(t *testing.T) {
	extractor := &stubExtractor{release: make(chan struct{})}
	p, _ := setupStubPipeline(t, extractor, stubIngester{}, WithPoolSize(2))
	ctx := context.Background()

	errs := make(chan error, 2)
	done := func(_ *core.MeetingRecord, err error) { errs <- err }

	_, err := p.Submit(ctx, standup, AnalyzeOptions{MeetingID: "same"}, done)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		_, busy := p.inflight["same"]
		return busy
	}, time.Second, 5*time.Millisecond)

	_, err = p.Submit(ctx, standup, AnalyzeOptions{MeetingID: "same", Replace: true}, done)
	require.NoError(t, err)
	assert.ErrorIs(t, <-errs, ErrMeetingExists)

	close(extractor.release)
	assert.NoError(t, <-errs)
	p.Wait()
}

func TestSubmit_AfterRelease(t *testing.T) {
	p, _ := setupStubPipeline(t, &stubExtractor{}, stubIngester{})
	p.Release()

	_, err := p.Submit(context.Background(), standup, AnalyzeOptions{}, nil)
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	record := &core.MeetingRecord{
		MeetingID: "m1",
		CreatedAt: created,
		Insights: core.MeetingInsights{
			ExecutiveSummary: "Planning <sync>",
			OverallSentiment: core.SentimentNeutral,
		},
		StoredCount: 7,
	}
	for i := range 7 {
		record.Utterances = append(record.Utterances, core.Utterance{
			SequenceIndex: i,
			Speaker:       "Alice",
			Text:          fmt.Sprintf("point %d", i),
		})
	}

	export := NewExport(record)
	assert.Len(t, export.SampleUtterances, SampleSize)
	assert.Equal(t, 7, export.StorageCount)

	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, export))
	assert.Contains(t, buf.String(), "\n  \"meeting_id\": \"m1\"")
	assert.Contains(t, buf.String(), "Planning <sync>")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "neutral", decoded["overall_sentiment"])
	assert.Equal(t, "2025-03-14T09:30:00Z", decoded["timestamp"])
	assert.Len(t, decoded["sample_utterances"], SampleSize)
}

func TestExport_ShortMeeting(t *testing.T) {
	record := &core.MeetingRecord{MeetingID: "m1"}
	export := NewExport(record)
	assert.NotNil(t, export.SampleUtterances)
	assert.Empty(t, export.SampleUtterances)
}
