package core

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Rank orders tiers from most urgent (0) to least urgent (3).
// Unknown tiers rank as medium.
func (u Urgency) Rank() int {
	if i := slices.Index(Urgencies, u); i >= 0 {
		return i
	}
	return slices.Index(Urgencies, UrgencyMedium)
}

// LookupUrgency parses a tier requested by a user. Unlike ParseUrgency it
// rejects anything that is not one of the four tiers.
func LookupUrgency(s string) (Urgency, error) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Urgencies, u) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUrgency, s)
	}
	return u, nil
}

// SortedActionItems returns the action items ordered from critical to low.
// Items of the same tier keep their extraction order.
func (m MeetingInsights) SortedActionItems() []ActionItem {
	return sortByUrgency(slices.Clone(m.ActionItems))
}

// ActionItemsByTag returns the items carrying tag, compared
// case-insensitively, ordered from critical to low.
func (m MeetingInsights) ActionItemsByTag(tag string) []ActionItem {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return m.filter(func(a ActionItem) bool {
		return tag != "" && slices.ContainsFunc(a.Tags, func(t string) bool {
			return strings.ToLower(t) == tag
		})
	})
}

// ActionItemsByOwner returns the items owned by owner, compared
// case-insensitively, ordered from critical to low.
func (m MeetingInsights) ActionItemsByOwner(owner string) []ActionItem {
	owner = strings.TrimSpace(owner)
	return m.filter(func(a ActionItem) bool {
		return owner != "" && strings.EqualFold(a.Owner, owner)
	})
}

// ActionItemsByUrgency returns the items of one tier in extraction order.
func (m MeetingInsights) ActionItemsByUrgency(u Urgency) []ActionItem {
	return m.filter(func(a ActionItem) bool {
		return a.Urgency == u
	})
}

func (m MeetingInsights) filter(keep func(ActionItem) bool) []ActionItem {
	items := make([]ActionItem, 0)
	for _, a := range m.ActionItems {
		if keep(a) {
			items = append(items, a)
		}
	}
	return sortByUrgency(items)
}

func sortByUrgency(items []ActionItem) []ActionItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Urgency.Rank() < items[j].Urgency.Rank()
	})
	return items
}

// SentimentDistribution counts speakers per sentiment label.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	// Speakers are ranked by average sentiment, highest first.
	Speakers []SpeakerStats `json:"speakers"`
}

// SentimentDistribution ranks speakers by average sentiment and counts how
// many fall under each label.
func (m *MeetingRecord) SentimentDistribution() SentimentDistribution {
	dist := SentimentDistribution{Speakers: m.SpeakerStats()}
	sort.SliceStable(dist.Speakers, func(i, j int) bool {
		return dist.Speakers[i].AverageSentiment > dist.Speakers[j].AverageSentiment
	})
	for _, s := range dist.Speakers {
		switch s.Label {
		case "Positive":
			dist.Positive++
		case "Negative":
			dist.Negative++
		default:
			dist.Neutral++
		}
	}
	return dist
}
