package insights

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/minutes/core"
)

// UnassignedOwner is the owner given to action items the model left without one.
const UnassignedOwner = "Unassigned"

// looseString accepts a JSON string, number, bool or null.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = looseString(t)
	case float64:
		*s = looseString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*s = looseString(strconv.FormatBool(t))
	default:
		return fmt.Errorf("expected a scalar, got %T", v)
	}
	return nil
}

// looseStrings accepts a JSON array of scalars, a single scalar, or null.
type looseStrings []string

func (s *looseStrings) UnmarshalJSON(data []byte) error {
	var list []looseString
	if err := json.Unmarshal(data, &list); err != nil {
		var single looseString
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		list = []looseString{single}
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, string(v))
	}
	*s = out
	return nil
}

// actionItemDraft is an action item as the model returned it, before
// normalization and urgency classification.
type actionItemDraft struct {
	Task          looseString  `json:"task"`
	Owner         looseString  `json:"owner"`
	Deadline      *looseString `json:"deadline"`
	UrgencyReason looseString  `json:"urgency_reason"`
	Tags          looseStrings `json:"tags"`
}

// rawInsights is the wrapper structure for the model's JSON response.
type rawInsights struct {
	ExecutiveSummary looseString       `json:"executive_summary"`
	ActionItems      []actionItemDraft `json:"action_items"`
	Topics           looseStrings      `json:"topics_discussed"`
	NamedEntities    looseStrings      `json:"named_entities"`
	OverallSentiment looseString       `json:"overall_sentiment"`
}

func (d actionItemDraft) task() string {
	return strings.TrimSpace(string(d.Task))
}

func (d actionItemDraft) owner() string {
	owner := strings.TrimSpace(string(d.Owner))
	if owner == "" {
		return UnassignedOwner
	}
	return owner
}

// deadline returns nil for absent deadlines, including the placeholders
// models write instead of null.
func (d actionItemDraft) deadline() *string {
	if d.Deadline == nil {
		return nil
	}
	value := strings.TrimSpace(string(*d.Deadline))
	switch strings.ToLower(value) {
	case "", "null", "n/a", "none":
		return nil
	}
	return &value
}

func (d actionItemDraft) reason() string {
	return strings.TrimSpace(string(d.UrgencyReason))
}

// finalize builds the ActionItem carrying the classified urgency.
func (d actionItemDraft) finalize(urgency core.Urgency) core.ActionItem {
	return core.ActionItem{
		Task:          d.task(),
		Owner:         d.owner(),
		Deadline:      d.deadline(),
		UrgencyReason: d.reason(),
		Tags:          dedupe(d.Tags),
		Urgency:       urgency,
	}
}

// dedupe trims values and removes empty and repeated ones, keeping order.
// The result is never nil.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func parseInsights(response string) (*rawInsights, error) {
	cleaned := cleanJSON(response)
	var raw rawInsights
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}
