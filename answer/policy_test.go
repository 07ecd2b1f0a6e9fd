package answer

import (
	"testing"

	"github.com/poiesic/minutes/core"
	"github.com/stretchr/testify/assert"
)

func policyMeeting() *core.MeetingRecord {
	return &core.MeetingRecord{
		MeetingID: "mtg_a",
		Utterances: []core.Utterance{
			{SequenceIndex: 0, Speaker: "Alice Park", Text: "Budget first."},
			{SequenceIndex: 1, Speaker: "Bob", Text: "Then hiring."},
		},
		Insights: core.MeetingInsights{Topics: []string{"Budget", "Q3 roadmap"}},
	}
}

func TestKeywordPolicy(t *testing.T) {
	meeting := policyMeeting()

	tests := []struct {
		name     string
		policy   *KeywordPolicy
		question string
		onTopic  bool
		reason   string
	}{
		{"keyword", DefaultPolicy(), "What was decided?", true, ReasonKeyword},
		{"keyword prefix", StrictPolicy(), "Anything discussed about lunch?", true, ReasonKeyword},
		{"participant", StrictPolicy(), "bob?", true, ReasonParticipant},
		{"multi word participant", StrictPolicy(), "Did Alice Park agree?", true, ReasonKeyword},
		{"participant full name", StrictPolicy(), "alice park thoughts", true, ReasonParticipant},
		{"topic", StrictPolicy(), "budget numbers", true, ReasonTopic},
		{"multi word topic", StrictPolicy(), "q3 roadmap status", true, ReasonTopic},
		{"hi permissive", DefaultPolicy(), "hi", true, ReasonDefault},
		{"hi strict", StrictPolicy(), "hi", false, ReasonUnmatched},
		{"partial name does not match", StrictPolicy(), "bobsled racing", false, ReasonUnmatched},
		{"empty question strict", StrictPolicy(), "", false, ReasonUnmatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := tt.policy.Evaluate(tt.question, meeting)
			assert.Equal(t, tt.onTopic, verdict.OnTopic)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestKeywordPolicy_NilMeeting(t *testing.T) {
	verdict := StrictPolicy().Evaluate("hello there", nil)
	assert.False(t, verdict.OnTopic)
}

func TestPolicyFunc(t *testing.T) {
	p := PolicyFunc(func(string, *core.MeetingRecord) Verdict {
		return Verdict{OnTopic: false, Reason: "closed"}
	})
	assert.Equal(t, Verdict{Reason: "closed"}, p.Evaluate("anything", nil))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "s", "next", "q3"}, tokenize("What's NEXT, Q3?"))
	assert.Empty(t, tokenize("?!"))
}
