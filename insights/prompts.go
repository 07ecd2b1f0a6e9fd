package insights

import (
	"fmt"
	"strings"

	"github.com/poiesic/minutes/core"
)

const extractionSystemPrompt = `You are an enterprise AI meeting assistant.
Extract structured information from meeting transcripts in valid JSON format.

Focus on:
- Executive summary (2-3 sentences)
- Action items with task, owner, deadline (ISO format if mentioned), urgency_reason, and tags
- Topics discussed
- Named entities (people, systems, tools)
- Overall meeting sentiment

For urgency_reason, provide detailed context about:
- Why the task is important
- Any mentioned deadlines or time pressures
- Dependencies or blockers
- Impact on the project

For tags, assign relevant categories like: development, documentation, testing, review, planning, communication, etc.`

const extractionPromptTemplate = `Analyze this meeting transcript and return ONLY valid JSON:

Transcript:
%s

Required JSON structure:
{
  "executive_summary": "brief overview",
  "action_items": [
    {
      "task": "description",
      "owner": "person name",
      "deadline": "YYYY-MM-DD or null",
      "urgency_reason": "detailed explanation of task importance, context, and time sensitivity",
      "tags": ["tag1", "tag2"]
    }
  ],
  "topics_discussed": ["topic1", "topic2"],
  "named_entities": ["entity1", "entity2"],
  "overall_sentiment": "positive/neutral/negative"
}

Return ONLY the JSON object, no markdown formatting.`

const urgencySystemPrompt = `You are an expert project manager analyzing task urgency.
Evaluate the urgency level based on:
- Deadline proximity
- Impact on project/team
- Dependencies and blockers
- Language indicators (ASAP, critical, etc.)
- Business context

Respond with ONLY ONE WORD: critical, high, medium, or low`

const urgencyPromptTemplate = `Determine urgency level for this task:

Task: %s
Owner: %s
Deadline: %s
Context: %s
`

// FormatTranscript renders utterances one per line as "[H:MM:SS] speaker: text".
func FormatTranscript(utterances []core.Utterance) string {
	var sb strings.Builder
	for i, u := range utterances {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%s] %s: %s", u.Timestamp(), u.Speaker, u.Text)
	}
	return sb.String()
}

func buildExtractionPrompt(utterances []core.Utterance) string {
	return fmt.Sprintf(extractionPromptTemplate, FormatTranscript(utterances))
}

func buildUrgencyPrompt(task, owner, deadline, reason string) string {
	return fmt.Sprintf(urgencyPromptTemplate, orNA(task), orNA(owner), orNA(deadline), orNA(reason))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
