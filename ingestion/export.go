package ingestion

import (
	"encoding/json"
	"io"
	"time"

	"github.com/poiesic/minutes/core"
)

// SampleSize is the number of utterances included in an export.
const SampleSize = 5

// Export is the portable summary of an analyzed meeting.
type Export struct {
	MeetingID        string               `json:"meeting_id"`
	Timestamp        time.Time            `json:"timestamp"`
	OverallSentiment core.SentimentLabel  `json:"overall_sentiment"`
	Summary          core.MeetingInsights `json:"summary"`
	StorageCount     int                  `json:"storage_count"`
	SampleUtterances []core.Utterance     `json:"sample_utterances"`
}

// NewExport builds the export artifact for a meeting record.
func NewExport(record *core.MeetingRecord) *Export {
	n := min(len(record.Utterances), SampleSize)
	sample := make([]core.Utterance, n)
	copy(sample, record.Utterances[:n])

	return &Export{
		MeetingID:        record.MeetingID,
		Timestamp:        record.CreatedAt,
		OverallSentiment: record.Insights.OverallSentiment,
		Summary:          record.Insights,
		StorageCount:     record.StoredCount,
		SampleUtterances: sample,
	}
}

// WriteExport writes the export as indented JSON.
func WriteExport(w io.Writer, e *Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(e)
}
