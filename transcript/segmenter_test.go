package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_TwoSpeakers(t *testing.T) {
	raw := "Alice: We need the report by Friday.\nBob: I'll own that."

	utterances := Segment(raw)
	require.Len(t, utterances, 2)

	assert.Equal(t, 0, utterances[0].SequenceIndex)
	assert.Equal(t, "Alice", utterances[0].Speaker)
	assert.Equal(t, "We need the report by Friday.", utterances[0].Text)
	assert.Equal(t, "0:00:00", utterances[0].Timestamp())

	// 30s gap plus 29 chars / 10
	assert.Equal(t, 1, utterances[1].SequenceIndex)
	assert.Equal(t, "Bob", utterances[1].Speaker)
	assert.Equal(t, 32*time.Second, utterances[1].Offset)
	assert.Equal(t, "0:00:32", utterances[1].Timestamp())
	assert.Nil(t, utterances[1].Sentiment)
}

func TestSegment_LineHandling(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		speakers []string
		texts    []string
	}{
		{
			name:     "skips blank lines and surrounding whitespace",
			raw:      "\n\n   Alice:  hello  \n\n\tBob:hi\n",
			speakers: []string{"Alice", "Bob"},
			texts:    []string{"hello", "hi"},
		},
		{
			name:     "drops lines without a colon",
			raw:      "Alice: one\n[inaudible]\nBob: two",
			speakers: []string{"Alice", "Bob"},
			texts:    []string{"one", "two"},
		},
		{
			name:     "splits on the first colon only",
			raw:      "Carol: the meeting is at 10:30",
			speakers: []string{"Carol"},
			texts:    []string{"the meeting is at 10:30"},
		},
		{
			name:     "drops lines with an empty speaker",
			raw:      ": orphan text\nDan: kept",
			speakers: []string{"Dan"},
			texts:    []string{"kept"},
		},
		{
			name:     "keeps empty text",
			raw:      "Eve:",
			speakers: []string{"Eve"},
			texts:    []string{""},
		},
		{
			name:     "handles CRLF",
			raw:      "Alice: one\r\nBob: two\r\n",
			speakers: []string{"Alice", "Bob"},
			texts:    []string{"one", "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			utterances := Segment(tt.raw)
			require.Len(t, utterances, len(tt.speakers))
			for i, u := range utterances {
				assert.Equal(t, i, u.SequenceIndex)
				assert.Equal(t, tt.speakers[i], u.Speaker)
				assert.Equal(t, tt.texts[i], u.Text)
			}
		})
	}
}

func TestSegment_Empty(t *testing.T) {
	for _, raw := range []string{"", "   \n\t\n", "no colons here"} {
		utterances := Segment(raw)
		assert.NotNil(t, utterances)
		assert.Empty(t, utterances)
	}
}

func TestSegment_MonotonicOffsets(t *testing.T) {
	raw := "A: short\nB: a considerably longer line of text that takes a while to say\nA: ok\nC: \nB: final words"

	utterances := Segment(raw)
	require.Len(t, utterances, 5)
	for i := 1; i < len(utterances); i++ {
		assert.Equal(t, utterances[i-1].SequenceIndex+1, utterances[i].SequenceIndex)
		assert.Greater(t, utterances[i].Offset, utterances[i-1].Offset)
	}
}

func TestSegmenter_Options(t *testing.T) {
	s := NewSegmenter(WithBaseOffset(time.Hour), WithGap(10*time.Second))

	// 20 runes of multibyte text advance by 2 seconds
	utterances := s.Segment("Zoë: éééééééééééééééééééé\nAl: next")
	require.Len(t, utterances, 2)
	assert.Equal(t, "1:00:00", utterances[0].Timestamp())
	assert.Equal(t, time.Hour+12*time.Second, utterances[1].Offset)
}
