package search

import "github.com/poiesic/minutes/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, meetingIDs []string)
	AfterSemanticSearch(meetingID string, hits []core.ScoredRecord)
	MatchedConcepts(meetingID string, concepts []string)
	AfterConceptualSearch(meetingID string, sequenceIndexes []int)
	SemanticAndConceptualHit(result *Result)
	SemanticHit(result *Result)
	ConceptualHit(result *Result)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ []string)                          {}
func (n *noopMonitor) AfterSemanticSearch(_ string, _ []core.ScoredRecord) {}
func (n *noopMonitor) MatchedConcepts(_ string, _ []string)                {}
func (n *noopMonitor) AfterConceptualSearch(_ string, _ []int)             {}
func (n *noopMonitor) SemanticAndConceptualHit(_ *Result)                  {}
func (n *noopMonitor) SemanticHit(_ *Result)                               {}
func (n *noopMonitor) ConceptualHit(_ *Result)                             {}
func (n *noopMonitor) Finish(_ []*Result)                                  {}
