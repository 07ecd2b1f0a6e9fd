package core

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored vector records.
// It is derived from content so that re-ingestion overwrites instead of duplicating.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// VectorRecordID returns the ID of the vector record for one utterance of a meeting.
func VectorRecordID(meetingID string, sequenceIndex int) ID {
	return IDFromContent(fmt.Sprintf("%s#%d", meetingID, sequenceIndex))
}

// Utterance is one speaker turn of a meeting transcript.
type Utterance struct {
	SequenceIndex int           `json:"sequence_index"`
	Speaker       string        `json:"speaker_name"`
	Text          string        `json:"text"`
	Offset        time.Duration `json:"offset"`
	Sentiment     *float64      `json:"sentiment"` // nil until annotated
}

// MarshalJSON adds the rendered timestamp alongside the raw offset.
func (u Utterance) MarshalJSON() ([]byte, error) {
	type utterance Utterance
	return json.Marshal(struct {
		utterance
		Timestamp string `json:"timestamp"`
	}{utterance(u), u.Timestamp()})
}

// Timestamp renders the utterance offset as elapsed time, e.g. "0:01:05".
func (u Utterance) Timestamp() string {
	return FormatElapsed(u.Offset)
}

// SentimentScore returns the annotated sentiment, or 0 when unset.
func (u Utterance) SentimentScore() float64 {
	if u.Sentiment == nil {
		return 0
	}
	return *u.Sentiment
}

// WithSentiment returns a copy of the utterance carrying the given score.
func (u Utterance) WithSentiment(score float64) Utterance {
	u.Sentiment = &score
	return u
}

// Urgency is the priority tier of an action item.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Urgencies lists every valid tier from most to least urgent.
var Urgencies = []Urgency{UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow}

// ParseUrgency maps classifier output onto a tier.
// Anything that is not exactly one of the four tiers collapses to medium.
func ParseUrgency(s string) Urgency {
	switch normalizeLabel(s) {
	case "critical":
		return UrgencyCritical
	case "high":
		return UrgencyHigh
	case "medium":
		return UrgencyMedium
	case "low":
		return UrgencyLow
	default:
		return UrgencyMedium
	}
}

// SentimentLabel is a coarse sentiment class.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Fixed numeric scores assigned to each label.
const (
	PositiveScore = 0.75
	NeutralScore  = 0.0
	NegativeScore = -0.75
)

// ParseSentimentLabel maps free-form model output onto a label.
// Output mentioning "positive" wins over "negative"; anything else is neutral.
func ParseSentimentLabel(s string) SentimentLabel {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(lower, "positive"):
		return SentimentPositive
	case strings.Contains(lower, "negative"):
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Score returns the fixed numeric score for the label.
func (l SentimentLabel) Score() float64 {
	switch l {
	case SentimentPositive:
		return PositiveScore
	case SentimentNegative:
		return NegativeScore
	default:
		return NeutralScore
	}
}

// ActionItem is a finalized task extracted from a meeting.
type ActionItem struct {
	Task          string   `json:"task"`
	Owner         string   `json:"owner"`
	Deadline      *string  `json:"deadline"` // nil when no deadline was mentioned
	UrgencyReason string   `json:"urgency_reason"`
	Tags          []string `json:"tags"`
	Urgency       Urgency  `json:"urgency"`
}

// DeadlineOr returns the deadline or the fallback when absent.
func (a ActionItem) DeadlineOr(fallback string) string {
	if a.Deadline == nil {
		return fallback
	}
	return *a.Deadline
}

// MeetingInsights is the structured extraction output for a meeting.
type MeetingInsights struct {
	ExecutiveSummary string         `json:"executive_summary"`
	ActionItems      []ActionItem   `json:"action_items"`
	Topics           []string       `json:"topics_discussed"`
	NamedEntities    []string       `json:"named_entities"`
	OverallSentiment SentimentLabel `json:"overall_sentiment"`
}

// VectorRecord is the embedded, meeting-scoped representation of one utterance.
type VectorRecord struct {
	ID            ID
	Embedding     []float32
	MeetingID     string
	SequenceIndex int
	Speaker       string
	Text          string
	Timestamp     string
	Sentiment     float64
}

// ScoredRecord is a vector record with its similarity to a query.
type ScoredRecord struct {
	Record *VectorRecord
	Score  float32
}

// MeetingRecord is the aggregate produced by analyzing one transcript.
type MeetingRecord struct {
	MeetingID   string          `json:"meeting_id"`
	CreatedAt   time.Time       `json:"created_at"`
	Utterances  []Utterance     `json:"utterances"`
	Insights    MeetingInsights `json:"insights"`
	StoredCount int             `json:"stored_count"`
}

// SpeakerNames returns the distinct speakers in order of first appearance.
func (m *MeetingRecord) SpeakerNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, u := range m.Utterances {
		if _, ok := seen[u.Speaker]; ok {
			continue
		}
		seen[u.Speaker] = struct{}{}
		names = append(names, u.Speaker)
	}
	return names
}

// SpeakerStats summarizes one participant's turns.
type SpeakerStats struct {
	Speaker          string  `json:"speaker"`
	Segments         int     `json:"segments"`
	AverageSentiment float64 `json:"average_sentiment"`
	Label            string  `json:"label"`
}

// SpeakerStats derives per-speaker statistics, ordered by first appearance.
func (m *MeetingRecord) SpeakerStats() []SpeakerStats {
	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, u := range m.Utterances {
		totals[u.Speaker] += u.SentimentScore()
		counts[u.Speaker]++
	}

	names := m.SpeakerNames()
	stats := make([]SpeakerStats, 0, len(names))
	for _, name := range names {
		avg := math.Round(totals[name]/float64(counts[name])*100) / 100
		stats = append(stats, SpeakerStats{
			Speaker:          name,
			Segments:         counts[name],
			AverageSentiment: avg,
			Label:            SpeakerSentimentLabel(avg),
		})
	}
	return stats
}

// SpeakerSentimentLabel converts an average sentiment into a display label.
func SpeakerSentimentLabel(score float64) string {
	switch {
	case score > 0.3:
		return "Positive"
	case score < -0.3:
		return "Negative"
	default:
		return "Neutral"
	}
}

// normalizeLabel lowercases s and strips surrounding whitespace and punctuation.
func normalizeLabel(s string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), " \t\r\n.,;:!?\"'`*")
}
