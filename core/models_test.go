package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestVectorRecordID(t *testing.T) {
	if VectorRecordID("mtg_a", 0) != VectorRecordID("mtg_a", 0) {
		t.Errorf("VectorRecordID() is not deterministic")
	}
	if VectorRecordID("mtg_a", 0) == VectorRecordID("mtg_a", 1) {
		t.Errorf("VectorRecordID() collided across sequence indexes")
	}
	if VectorRecordID("mtg_a", 0) == VectorRecordID("mtg_b", 0) {
		t.Errorf("VectorRecordID() collided across meetings")
	}
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in   string
		want Urgency
	}{
		{"critical", UrgencyCritical},
		{"High", UrgencyHigh},
		{" low.\n", UrgencyLow},
		{"medium", UrgencyMedium},
		{"urgent", UrgencyMedium},
		{"", UrgencyMedium},
		{"high priority", UrgencyMedium},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseUrgency(tt.in); got != tt.want {
				t.Errorf("ParseUrgency(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSentimentLabel(t *testing.T) {
	tests := []struct {
		in    string
		want  SentimentLabel
		score float64
	}{
		{"positive", SentimentPositive, 0.75},
		{"Negative.", SentimentNegative, -0.75},
		{"neutral", SentimentNeutral, 0.0},
		{"I cannot tell", SentimentNeutral, 0.0},
		{"", SentimentNeutral, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseSentimentLabel(tt.in)
			if got != tt.want {
				t.Errorf("ParseSentimentLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got.Score() != tt.score {
				t.Errorf("Score() = %v, want %v", got.Score(), tt.score)
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{30 * time.Second, "0:00:30"},
		{65 * time.Second, "0:01:05"},
		{3723 * time.Second, "1:02:03"},
		{30*time.Hour + 5*time.Second, "30:00:05"},
		{-time.Second, "0:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatElapsed(tt.d); got != tt.want {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestNewMeetingID(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	id := NewMeetingID(now)
	if !strings.HasPrefix(id, "mtg_20240305_140709_") {
		t.Errorf("NewMeetingID() = %q, unexpected prefix", id)
	}
	if len(id) != len("mtg_20240305_140709_")+8 {
		t.Errorf("NewMeetingID() = %q, unexpected length", id)
	}
	if NewMeetingID(now) == id {
		t.Errorf("NewMeetingID() repeated within the same second")
	}
}

func TestUtterance_MarshalJSON(t *testing.T) {
	u := Utterance{SequenceIndex: 1, Speaker: "Bob", Text: "hi", Offset: 42 * time.Second}.WithSentiment(0.75)

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if fields["timestamp"] != "0:00:42" {
		t.Errorf("timestamp = %v, want 0:00:42", fields["timestamp"])
	}
	if fields["speaker_name"] != "Bob" {
		t.Errorf("speaker_name = %v, want Bob", fields["speaker_name"])
	}

	var back Utterance
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Offset != u.Offset || back.SentimentScore() != 0.75 {
		t.Errorf("round trip lost fields: %+v", back)
	}
}

func TestMeetingRecord_SpeakerStats(t *testing.T) {
	record := &MeetingRecord{
		Utterances: []Utterance{
			Utterance{SequenceIndex: 0, Speaker: "Alice"}.WithSentiment(0.75),
			Utterance{SequenceIndex: 1, Speaker: "Bob"}.WithSentiment(-0.75),
			Utterance{SequenceIndex: 2, Speaker: "Alice"}.WithSentiment(0.0),
			Utterance{SequenceIndex: 3, Speaker: "Carol"},
			Utterance{SequenceIndex: 4, Speaker: "Alice"}.WithSentiment(0.75),
		},
	}

	stats := record.SpeakerStats()
	if len(stats) != 3 {
		t.Fatalf("SpeakerStats() returned %d entries, want 3", len(stats))
	}

	want := []SpeakerStats{
		{Speaker: "Alice", Segments: 3, AverageSentiment: 0.5, Label: "Positive"},
		{Speaker: "Bob", Segments: 1, AverageSentiment: -0.75, Label: "Negative"},
		{Speaker: "Carol", Segments: 1, AverageSentiment: 0, Label: "Neutral"},
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("stats[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}
}

func TestSpeakerSentimentLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.31, "Positive"},
		{0.3, "Neutral"},
		{-0.3, "Neutral"},
		{-0.31, "Negative"},
	}

	for _, tt := range tests {
		if got := SpeakerSentimentLabel(tt.score); got != tt.want {
			t.Errorf("SpeakerSentimentLabel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
