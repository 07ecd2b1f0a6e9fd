package minutes

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/ai/mock"
	"github.com/poiesic/minutes/ingestion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planning = `Alice: Let's plan the launch of the mobile app.
Bob: I will finish the release checklist by Monday.
Alice: Good, the app store review takes a week.`

func scriptedProvider() ai.AIProvider {
	return scriptedProviderWith(mock.NewMockEmbedder())
}

func scriptedProviderWith(embedder *mock.MockEmbedder) ai.AIProvider {
	gen := &mock.MockGenerator{
		GenerateFunc: func(_ context.Context, req ai.Request) (string, error) {
			switch {
			case strings.HasPrefix(req.Prompt, "Analyze sentiment"):
				return "neutral", nil
			case strings.HasPrefix(req.Prompt, "Determine urgency"):
				return "critical", nil
			case strings.HasPrefix(req.Prompt, "Analyze this meeting"):
				return `{"executive_summary": "Launch planning.", "action_items": [{"task": "Finish release checklist", "owner": "Bob", "deadline": "Monday"}], "topics_discussed": ["mobile app launch"], "named_entities": ["Bob"], "overall_sentiment": "neutral"}`, nil
			default:
				return "Bob finishes the release checklist by Monday.", nil
			}
		},
	}
	return mock.NewMockProviderWithServices(embedder, gen)
}

func openTestAssistant(t *testing.T, opts ...Option) *Assistant {
	t.Helper()
	opts = append([]Option{
		WithInMemory(),
		WithProviders(scriptedProvider()),
		WithSentimentDelay(0),
	}, opts...)
	a, err := Open(context.Background(), "", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpen(t *testing.T) {
	t.Run("opens on disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "minutes_db")
		a, err := Open(context.Background(), dir, WithProviders(scriptedProvider()))
		require.NoError(t, err)
		defer a.Close()

		assert.NotNil(t, a.Meetings())
		assert.NotNil(t, a.KnowledgeStore())
		assert.NotNil(t, a.Metrics())
		assert.Equal(t, []string{"mock"}, a.Providers())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		a, err := Open(context.Background(), tmpFile, WithProviders(scriptedProvider()))
		assert.Error(t, err)
		assert.Nil(t, a)
	})

	t.Run("error with invalid ai config", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithEmbeddingModel(""))
		a, err := Open(context.Background(), "", WithInMemory(), WithAIConfig(cfg))
		assert.Error(t, err)
		assert.Nil(t, a)
	})
}

func TestAssistant_AnalyzeAndAnswer(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := openTestAssistant(t, WithRegisterer(reg))
	ctx := context.Background()

	pipeline, err := a.NewPipeline(ingestion.WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	record, err := pipeline.Analyze(ctx, planning, ingestion.AnalyzeOptions{MeetingID: "launch"})
	require.NoError(t, err)
	require.Len(t, record.Insights.ActionItems, 1)
	assert.Equal(t, "critical", string(record.Insights.ActionItems[0].Urgency))
	assert.Equal(t, 3, record.StoredCount)

	engine, err := a.NewEngine()
	require.NoError(t, err)

	resp, err := engine.Answer(ctx, "What will Bob finish?", "launch")
	require.NoError(t, err)
	assert.True(t, resp.OnTopic)
	assert.Equal(t, "Bob finishes the release checklist by Monday.", resp.Text)
	assert.Equal(t, "mock", resp.Provider)
	assert.NotEmpty(t, resp.Excerpts)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "metrics register on the supplied registerer")
}

func TestAssistant_Close(t *testing.T) {
	a, err := Open(context.Background(), t.TempDir(), WithProviders(scriptedProvider()))
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}

func TestAssistant_EmbeddingDimensions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"learned from the embedder", nil},
		{"pinned by configuration", []Option{WithAIConfig(ai.NewConfig(ai.WithEmbeddingDimension(768)))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithProviders(scriptedProviderWith(&mock.MockEmbedder{Dimension: 768}))}, tt.opts...)
			a := openTestAssistant(t, opts...)
			ctx := context.Background()

			pipeline, err := a.NewPipeline(ingestion.WithPoolSize(1))
			require.NoError(t, err)
			defer pipeline.Release()

			record, err := pipeline.Analyze(ctx, planning, ingestion.AnalyzeOptions{MeetingID: "launch"})
			require.NoError(t, err)
			assert.Equal(t, 3, record.StoredCount)

			info, err := a.KnowledgeStore().Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 768, info.Dimension)

			engine, err := a.NewEngine()
			require.NoError(t, err)
			resp, err := engine.Answer(ctx, "What will Bob finish?", "launch")
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Excerpts)
		})
	}
}

func TestAssistant_ComponentLoggers(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := openTestAssistant(t, WithLogger(logger))

	pipeline, err := a.NewPipeline(ingestion.WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Analyze(context.Background(), planning, ingestion.AnalyzeOptions{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, strings.Count(line, "component="), 1, line)
		assert.NotContains(t, line, `meeting_id=""`, line)
	}
	assert.Contains(t, logs.String(), "component=pipeline")
}
