package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/knowledge"
	"github.com/poiesic/minutes/storage"
)

// Retriever finds the utterances of one meeting closest to a query.
// It is satisfied by *knowledge.Store.
type Retriever interface {
	Retrieve(ctx context.Context, query, meetingID string, topK int) (*knowledge.Retrieval, error)
}

// Result is one ranked utterance.
type Result struct {
	MeetingID  string
	Utterance  core.Utterance
	Score      float32
	Similarity float32 // zero when the utterance was not a semantic hit
	Semantic   bool
	Conceptual bool
	Verbatim   bool
}

// Searcher provides hybrid semantic and conceptual search over meetings.
type Searcher struct {
	meetings  storage.MeetingRepository
	retriever Retriever
	minScore  float32
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore drops semantic hits below the given similarity.
// Default is 0, keeping every hit.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		s.minScore = score
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(meetings storage.MeetingRepository, retriever Retriever, opts ...Option) (*Searcher, error) {
	if meetings == nil {
		return nil, ErrMeetingRepositoryRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	s := &Searcher{
		meetings:  meetings,
		retriever: retriever,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindSimilar searches the named meetings, or every registered meeting when
// none are named. Returns up to maxHits results, ranked by relevance score.
// A meeting whose semantic search fails still contributes its topic and
// entity matches.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int, meetingIDs ...string) ([]*Result, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil, meetingIDs...)
}

// FindSimilarWithMonitor is FindSimilar with a monitor that receives
// callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor, meetingIDs ...string) ([]*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if maxHits <= 0 {
		maxHits = knowledge.DefaultTopK
	}

	records, err := s.load(ctx, meetingIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.MeetingID
	}
	monitor.Start(query, ids)

	results := make([]*Result, 0)
	for _, record := range records {
		found, err := s.searchMeeting(ctx, query, maxHits, record, monitor)
		if err != nil {
			return nil, err
		}
		results = append(results, found...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

func (s *Searcher) load(ctx context.Context, meetingIDs []string) ([]*core.MeetingRecord, error) {
	if len(meetingIDs) == 0 {
		return s.meetings.List(ctx)
	}
	records := make([]*core.MeetingRecord, 0, len(meetingIDs))
	for _, id := range meetingIDs {
		record, err := s.meetings.Get(ctx, id)
		if err != nil {
			s.logger.Error("error loading meeting", "meeting_id", id, "err", err)
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Searcher) searchMeeting(ctx context.Context, query string, maxHits int, record *core.MeetingRecord, monitor SearchMonitor) ([]*Result, error) {
	// 1. Semantic search within the meeting; a failure leaves only the
	// conceptual matches
	var hits []core.ScoredRecord
	retrieval, err := s.retriever.Retrieve(ctx, query, record.MeetingID, maxHits)
	switch {
	case err == nil:
		hits = retrieval.Hits
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		s.logger.Warn("semantic search failed, using topic and entity matches only",
			"meeting_id", record.MeetingID, "err", err)
	}
	monitor.AfterSemanticSearch(record.MeetingID, hits)

	semanticScores := make(map[int]float32, len(hits))
	for _, hit := range hits {
		if hit.Score < s.minScore {
			continue
		}
		semanticScores[hit.Record.SequenceIndex] = hit.Score
	}

	// 2. Concepts are the extracted topics and entities the query mentions
	queryWords := tokenize(query)
	var concepts []string
	for _, c := range append(append([]string{}, record.Insights.Topics...), record.Insights.NamedEntities...) {
		if mentions(queryWords, c) {
			concepts = append(concepts, c)
		}
	}
	monitor.MatchedConcepts(record.MeetingID, concepts)

	// 3. Utterances that mention a matched concept
	conceptual := make(map[int]bool)
	var conceptualIdx []int
	if len(concepts) > 0 {
		for _, u := range record.Utterances {
			words := tokenize(u.Text)
			for _, c := range concepts {
				if mentions(words, c) {
					conceptual[u.SequenceIndex] = true
					conceptualIdx = append(conceptualIdx, u.SequenceIndex)
					break
				}
			}
		}
	}
	monitor.AfterConceptualSearch(record.MeetingID, conceptualIdx)

	// 4. Combine and score
	results := make([]*Result, 0, len(semanticScores)+len(conceptual))
	for _, u := range record.Utterances {
		similarity, inSemantic := semanticScores[u.SequenceIndex]
		inConceptual := conceptual[u.SequenceIndex]
		if !inSemantic && !inConceptual {
			continue
		}

		result := &Result{
			MeetingID:  record.MeetingID,
			Utterance:  u,
			Similarity: similarity,
			Semantic:   inSemantic,
			Conceptual: inConceptual,
		}
		switch {
		case inSemantic && inConceptual:
			// In both: boost by 1.5x, weighted by similarity score
			result.Score = 1.5 * similarity
			monitor.SemanticAndConceptualHit(result)
		case inConceptual:
			result.Score = 1.2
			monitor.ConceptualHit(result)
		default:
			result.Score = similarity
			monitor.SemanticHit(result)
		}

		if containsAllQueryWords(u.Text, query) {
			result.Verbatim = true
			result.Score += 0.3
		}
		results = append(results, result)
	}

	return results, nil
}
