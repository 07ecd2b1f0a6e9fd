package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/ai/mock"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnnotator_RequiresGenerator(t *testing.T) {
	_, err := NewAnnotator(nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestAnnotateSentiment_LabelMapping(t *testing.T) {
	tests := []struct {
		response string
		want     float64
	}{
		{"positive", core.PositiveScore},
		{"Positive.", core.PositiveScore},
		{"negative", core.NegativeScore},
		{"  NEGATIVE\n", core.NegativeScore},
		{"neutral", core.NeutralScore},
		{"I cannot tell", core.NeutralScore},
		{"", core.NeutralScore},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			annotator, err := NewAnnotator(mock.NewMockGenerator(tt.response), WithDelay(0))
			require.NoError(t, err)

			out, err := annotator.AnnotateSentiment(context.Background(), Segment("Alice: hello"))
			require.NoError(t, err)
			require.Len(t, out, 1)
			require.NotNil(t, out[0].Sentiment)
			assert.Equal(t, tt.want, *out[0].Sentiment)
		})
	}
}

func TestAnnotateSentiment_Request(t *testing.T) {
	gen := mock.NewMockGenerator("positive")
	annotator, err := NewAnnotator(gen, WithDelay(0))
	require.NoError(t, err)

	_, err = annotator.AnnotateSentiment(context.Background(), Segment("Alice: great work\nBob: thanks"))
	require.NoError(t, err)

	requests := gen.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "Analyze sentiment: 'great work'", requests[0].Prompt)
	assert.Contains(t, requests[0].SystemInstruction, "ONLY ONE WORD")
	assert.Equal(t, 0.1, requests[0].Temperature)
	assert.Equal(t, 5, requests[0].MaxTokens)
}

func TestAnnotateSentiment_FailureScoresNeutral(t *testing.T) {
	gen := &mock.MockGenerator{
		GenerateFunc: func(_ context.Context, req ai.Request) (string, error) {
			if strings.Contains(req.Prompt, "broken") {
				return "", errors.New("provider down")
			}
			return "negative", nil
		},
	}
	metrics := observability.NewMetrics()
	annotator, err := NewAnnotator(gen, WithDelay(0), WithMetrics(metrics))
	require.NoError(t, err)

	input := Segment("Alice: this is bad\nBob: broken\nCarol: awful")
	out, err := annotator.AnnotateSentiment(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, core.NegativeScore, *out[0].Sentiment)
	assert.Equal(t, core.NeutralScore, *out[1].Sentiment)
	assert.Equal(t, core.NegativeScore, *out[2].Sentiment)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClassificationFailures.WithLabelValues(observability.KindSentiment)))

	// input is left untouched
	for _, u := range input {
		assert.Nil(t, u.Sentiment)
	}
}

func TestAnnotateSentiment_Empty(t *testing.T) {
	gen := mock.NewMockGenerator("positive")
	annotator, err := NewAnnotator(gen)
	require.NoError(t, err)

	out, err := annotator.AnnotateSentiment(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, gen.CallCount())
}

func TestAnnotateSentiment_CancelDuringDelay(t *testing.T) {
	gen := mock.NewMockGenerator("positive")
	annotator, err := NewAnnotator(gen, WithDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = annotator.AnnotateSentiment(ctx, Segment("A: one\nB: two"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, gen.CallCount())
}
