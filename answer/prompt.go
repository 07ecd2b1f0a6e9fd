package answer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/minutes/core"
)

const systemInstruction = `You are an AI meeting assistant. Answer questions based ONLY on the provided meeting data.
Be concise and accurate. If information is not available in the meeting, say so clearly.
Reference specific timestamps and speakers when relevant.
Prioritize information from the most relevant sections when available.
Do not make up information that is not in the meeting.`

const closingInstruction = `Provide a clear, concise answer based on the meeting data above. Use the relevant sections highlighted by semantic search for better context.
If the answer is not available in the meeting data, clearly state that.`

// buildPrompt assembles the full transcript, the insights block and the
// ranked excerpts around the question.
func buildPrompt(question string, meeting *core.MeetingRecord, hits []core.ScoredRecord) string {
	var sb strings.Builder

	sb.WriteString("FULL MEETING TRANSCRIPT:\n")
	for _, u := range meeting.Utterances {
		fmt.Fprintf(&sb, "[%s] %s (Sentiment: %s): %s\n", u.Timestamp(), u.Speaker, formatScore(u.SentimentScore()), u.Text)
	}

	sb.WriteString("\nMEETING SUMMARY:\n")
	writeInsights(&sb, meeting.Insights)

	if len(hits) > 0 {
		sb.WriteString("\nMOST RELEVANT TRANSCRIPT SECTIONS (Semantic Search):\n")
		for i, hit := range hits {
			fmt.Fprintf(&sb, "%d. [%s] %s: %s (Relevance: %.3f)\n",
				i+1, hit.Record.Timestamp, hit.Record.Speaker, hit.Record.Text, hit.Score)
		}
	}

	fmt.Fprintf(&sb, "\nUSER QUESTION: %s\n\n", question)
	sb.WriteString(closingInstruction)
	return sb.String()
}

func writeInsights(sb *strings.Builder, in core.MeetingInsights) {
	fmt.Fprintf(sb, "EXECUTIVE SUMMARY:\n%s\n\nACTION ITEMS:\n", orNA(in.ExecutiveSummary))
	for i, item := range in.ActionItems {
		fmt.Fprintf(sb, "%d. Task: %s\n", i+1, orNA(item.Task))
		fmt.Fprintf(sb, "   Owner: %s\n", orNA(item.Owner))
		fmt.Fprintf(sb, "   Deadline: %s\n", item.DeadlineOr("N/A"))
		fmt.Fprintf(sb, "   Urgency: %s\n", orNA(string(item.Urgency)))
		fmt.Fprintf(sb, "   Reason: %s\n", orNA(item.UrgencyReason))
	}
	fmt.Fprintf(sb, "\nTOPICS DISCUSSED: %s\n", joinOrNA(in.Topics))
	fmt.Fprintf(sb, "NAMED ENTITIES: %s\n", joinOrNA(in.NamedEntities))
	fmt.Fprintf(sb, "OVERALL SENTIMENT: %s\n", orNA(string(in.OverallSentiment)))
}

// formatScore renders a sentiment score with at least one decimal place.
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func joinOrNA(values []string) string {
	if len(values) == 0 {
		return "N/A"
	}
	return strings.Join(values, ", ")
}
