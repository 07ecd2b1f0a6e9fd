package answer

import (
	"strings"
	"unicode"

	"github.com/poiesic/minutes/core"
)

// Reasons reported by KeywordPolicy.
const (
	ReasonKeyword     = "Question contains meeting-related keywords"
	ReasonParticipant = "Question mentions a meeting participant"
	ReasonTopic       = "Question mentions a meeting topic"
	ReasonDefault     = "Allowing question by default"
	ReasonUnmatched   = "Question does not reference the meeting"
)

// OffTopicResponse is returned instead of an answer when a question is rejected.
const OffTopicResponse = "I can only answer questions related to this meeting. " +
	"Your question appears to be off-topic. Please ask something about the meeting content, " +
	"participants, decisions, or action items."

// MeetingKeywords are the words that mark a question as being about a meeting.
var MeetingKeywords = []string{
	"meeting", "discuss", "said", "mention", "talk", "speaker", "participant",
	"action", "task", "deadline", "decision", "summary", "topic", "agenda",
	"who", "what", "when", "why", "how", "which", "tell", "explain", "describe",
	"sentiment", "mood", "tone", "owner", "assigned", "responsible", "urgent",
	"important", "critical", "priority", "risk", "issue", "problem", "solution",
	"agree", "disagree", "point", "highlight", "key", "main", "focus", "outcome",
	"result", "conclusion", "next", "step", "follow", "up", "plan", "schedule",
}

// Verdict is the outcome of a topicality check.
type Verdict struct {
	OnTopic bool
	Reason  string
}

// Policy decides whether a question is in scope for a meeting.
type Policy interface {
	Evaluate(question string, meeting *core.MeetingRecord) Verdict
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(question string, meeting *core.MeetingRecord) Verdict

// Evaluate implements Policy.
func (f PolicyFunc) Evaluate(question string, meeting *core.MeetingRecord) Verdict {
	return f(question, meeting)
}

// KeywordPolicy accepts questions that use a meeting keyword, name a
// participant, or name a discussed topic. Keywords match word prefixes, so
// "discussed" matches "discuss"; names and topics match whole words.
type KeywordPolicy struct {
	Keywords       []string
	AllowUnmatched bool
}

// DefaultPolicy checks keywords, participants and topics, and still allows
// questions that match none of them.
func DefaultPolicy() *KeywordPolicy {
	return &KeywordPolicy{Keywords: MeetingKeywords, AllowUnmatched: true}
}

// StrictPolicy rejects questions that match no keyword, participant or topic.
func StrictPolicy() *KeywordPolicy {
	return &KeywordPolicy{Keywords: MeetingKeywords}
}

// Evaluate implements Policy.
func (p *KeywordPolicy) Evaluate(question string, meeting *core.MeetingRecord) Verdict {
	words := tokenize(question)

	for _, w := range words {
		for _, k := range p.Keywords {
			if strings.HasPrefix(w, k) {
				return Verdict{OnTopic: true, Reason: ReasonKeyword}
			}
		}
	}

	if meeting != nil {
		for _, speaker := range meeting.SpeakerNames() {
			if containsPhrase(words, tokenize(speaker)) {
				return Verdict{OnTopic: true, Reason: ReasonParticipant}
			}
		}
		for _, topic := range meeting.Insights.Topics {
			if containsPhrase(words, tokenize(topic)) {
				return Verdict{OnTopic: true, Reason: ReasonTopic}
			}
		}
	}

	if p.AllowUnmatched {
		return Verdict{OnTopic: true, Reason: ReasonDefault}
	}
	return Verdict{OnTopic: false, Reason: ReasonUnmatched}
}

// tokenize lowercases s and splits it into letter and digit runs.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsPhrase reports whether phrase occurs as consecutive words.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
