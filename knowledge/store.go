// Package knowledge stores embedded utterances and retrieves the ones most
// relevant to a question, never returning another meeting's records.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/minutes/ai"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/observability"
	"github.com/poiesic/minutes/storage"
)

const (
	DefaultCollection = "meeting_transcripts"
	DefaultBatchSize  = 100
	DefaultOverfetch  = 10
	DefaultTopK       = 5
)

// Strategy names a retrieval path.
type Strategy string

const (
	// StrategyFiltered searches with a server-side meeting_id filter.
	StrategyFiltered Strategy = "filtered"
	// StrategyScan searches unfiltered over an overfetched candidate set and
	// filters by meeting_id afterwards.
	StrategyScan Strategy = "scan"
)

// Retrieval is the result of Retrieve.
type Retrieval struct {
	// Hits are ordered by descending score and all belong to the requested meeting.
	Hits []core.ScoredRecord
	// Strategy is the path that served the request.
	Strategy Strategy
}

// Store is the meeting-scoped knowledge store.
type Store struct {
	index      storage.VectorIndex
	embedder   ai.Embedder
	collection string
	dimension  int
	batchSize  int
	overfetch  int
	strategies []Strategy
	logger     *slog.Logger
	metrics    *observability.Metrics

	// mu guards ready and dimension, which is learned from the embedder
	// when not configured.
	mu    sync.Mutex
	ready bool
}

// dimensionSample is embedded once to learn the embedder's vector size.
const dimensionSample = "meeting transcript"


// Option configures a Store.
type Option func(*Store) error

// WithCollection sets the collection name. Default is DefaultCollection.
func WithCollection(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return errors.New("collection name is required")
		}
		s.collection = name
		return nil
	}
}

// WithDimension fixes the embedding dimension. By default it is learned by
// embedding a short sample text the first time the store is used.
func WithDimension(dim int) Option {
	return func(s *Store) error {
		if dim < 1 {
			return fmt.Errorf("invalid dimension %d", dim)
		}
		s.dimension = dim
		return nil
	}
}

// WithBatchSize sets how many records are uploaded per transaction.
// Default is DefaultBatchSize, with a minimum of 1.
func WithBatchSize(size int) Option {
	return func(s *Store) error {
		if size < 1 {
			size = 1
		}
		s.batchSize = size
		return nil
	}
}

// WithOverfetch sets the candidate multiplier of the scan strategy.
// Default is DefaultOverfetch, with a minimum of 1.
func WithOverfetch(n int) Option {
	return func(s *Store) error {
		if n < 1 {
			n = 1
		}
		s.overfetch = n
		return nil
	}
}

// WithStrategies sets the retrieval strategies tried in order.
// Default is filtered, then scan.
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Store) error {
		if len(strategies) == 0 {
			return fmt.Errorf("%w: none given", ErrUnknownStrategy)
		}
		for _, st := range strategies {
			if st != StrategyFiltered && st != StrategyScan {
				return fmt.Errorf("%w: %q", ErrUnknownStrategy, st)
			}
		}
		s.strategies = append([]Strategy(nil), strategies...)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics records retrievals, scope violations and ingested records on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) error {
		if m != nil {
			s.metrics = m
		}
		return nil
	}
}

// NewStore creates a knowledge store over index.
func NewStore(index storage.VectorIndex, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Store{
		index:      index,
		embedder:   embedder,
		collection: DefaultCollection,
		batchSize:  DefaultBatchSize,
		overfetch:  DefaultOverfetch,
		strategies: []Strategy{StrategyFiltered, StrategyScan},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	s.logger = s.logger.With("component", "knowledge", "collection", s.collection)
	return s, nil
}

// Collection returns the collection name.
func (s *Store) Collection() string {
	return s.collection
}

// EnsureReady creates the collection and its meeting_id index if needed.
// A collection created for another embedding dimension fails with
// storage.ErrDimensionMismatch until Rebuild replaces it.
func (s *Store) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureReady(ctx)
}

func (s *Store) ensureReady(ctx context.Context) error {
	if s.ready {
		return nil
	}
	dim, err := s.resolveDimension(ctx)
	if err != nil {
		return err
	}

	err = s.index.EnsureCollection(ctx, s.collection, dim, storage.Cosine)
	if errors.Is(err, storage.ErrDimensionMismatch) {
		return fmt.Errorf("ensure collection: %w (re-embed stored meetings to rebuild it)", err)
	}
	if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("ensure collection: %w", err)
	}
	err = s.index.EnsureIndex(ctx, s.collection, storage.FieldMeetingID)
	if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("ensure index: %w", err)
	}
	s.ready = true
	return nil
}

func (s *Store) resolveDimension(ctx context.Context) (int, error) {
	if s.dimension > 0 {
		return s.dimension, nil
	}
	vector, err := s.embedder.EmbedText(ctx, dimensionSample)
	if err != nil {
		return 0, fmt.Errorf("detect embedding dimension: %w", err)
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("%w: embedder returned an empty vector", ErrEmbeddingMismatch)
	}
	s.dimension = len(vector)
	s.logger.Debug("detected embedding dimension", "dimension", s.dimension)
	return s.dimension, nil
}

// Rebuild drops and recreates the collection when its dimension differs
// from the embedder's, reporting whether it did. Every stored record is lost
// on a rebuild, so callers must re-ingest all meetings afterwards.
func (s *Store) Rebuild(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := s.resolveDimension(ctx)
	if err != nil {
		return false, err
	}

	info, err := s.index.Info(ctx, s.collection)
	switch {
	case errors.Is(err, storage.ErrCollectionNotFound):
		return false, s.ensureReady(ctx)
	case err != nil:
		return false, err
	case info.Dimension == dim:
		return false, s.ensureReady(ctx)
	}

	s.logger.Warn("embedding dimension changed, dropping collection",
		"from", info.Dimension, "to", dim, "records", info.Count)
	if err := s.index.DropCollection(ctx, s.collection); err != nil {
		return false, fmt.Errorf("drop collection: %w", err)
	}
	s.ready = false
	if err := s.ensureReady(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Ingest embeds utterances and stores them as the meeting's records,
// replacing any records already stored for meetingID. It returns the number
// of records written.
func (s *Store) Ingest(ctx context.Context, utterances []core.Utterance, meetingID string) (int, error) {
	if meetingID == "" {
		return 0, core.ErrEmptyMeetingID
	}
	if err := core.ValidateUtterances(utterances); err != nil {
		return 0, err
	}
	if err := s.EnsureReady(ctx); err != nil {
		return 0, err
	}

	// Embed everything before touching stored records so a failed embedding
	// leaves the previous ingestion intact.
	records, err := s.embed(ctx, utterances, meetingID)
	if err != nil {
		return 0, err
	}

	removed, err := s.index.DeleteByFilter(ctx, s.collection, storage.Filter{MeetingID: meetingID})
	if err != nil {
		return 0, fmt.Errorf("remove previous records: %w", err)
	}
	if removed > 0 {
		s.logger.Info("replacing meeting records", "meeting_id", meetingID, "removed", removed)
	}

	batches := (len(records) + s.batchSize - 1) / s.batchSize
	for b := 0; b < batches; b++ {
		start := b * s.batchSize
		end := min(start+s.batchSize, len(records))
		if err := s.index.Upsert(ctx, s.collection, records[start:end]); err != nil {
			return start, fmt.Errorf("%w: batch %d/%d: %w", ErrBatchFailed, b+1, batches, err)
		}
		s.metrics.IngestedRecords.Add(float64(end - start))
		s.logger.Debug("uploaded batch", "meeting_id", meetingID, "batch", b+1, "batches", batches)
	}

	s.logger.Info("stored meeting records", "meeting_id", meetingID, "count", len(records))
	return len(records), nil
}

func (s *Store) embed(ctx context.Context, utterances []core.Utterance, meetingID string) ([]*core.VectorRecord, error) {
	records := make([]*core.VectorRecord, 0, len(utterances))
	for start := 0; start < len(utterances); start += s.batchSize {
		end := min(start+s.batchSize, len(utterances))
		chunk := utterances[start:end]

		texts := make([]string, len(chunk))
		for i, u := range chunk {
			texts[i] = embeddingText(u)
		}
		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed utterances %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(chunk) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingMismatch, len(vectors), len(chunk))
		}

		for i, u := range chunk {
			if len(vectors[i]) != s.dimension {
				return nil, fmt.Errorf("%w: vector of %d values, collection expects %d",
					ErrEmbeddingMismatch, len(vectors[i]), s.dimension)
			}
			records = append(records, &core.VectorRecord{
				ID:            core.VectorRecordID(meetingID, u.SequenceIndex),
				Embedding:     vectors[i],
				MeetingID:     meetingID,
				SequenceIndex: u.SequenceIndex,
				Speaker:       u.Speaker,
				Text:          u.Text,
				Timestamp:     u.Timestamp(),
				Sentiment:     u.SentimentScore(),
			})
		}
	}
	return records, nil
}

// embeddingText is the text embedded for one utterance.
func embeddingText(u core.Utterance) string {
	return u.Speaker + ": " + u.Text
}

// Retrieve returns up to topK of the meeting's records most similar to
// query. Strategies are tried in order; the first that succeeds serves the
// request. When every strategy fails the error wraps core.ErrRetrievalFailure.
func (s *Store) Retrieve(ctx context.Context, query, meetingID string, topK int) (*Retrieval, error) {
	if meetingID == "" {
		return nil, core.ErrEmptyMeetingID
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", core.ErrRetrievalFailure, err)
	}

	var errs []error
	for _, strategy := range s.strategies {
		hits, err := s.search(ctx, strategy, vector, meetingID, topK)
		s.metrics.RecordRetrieval(string(strategy), err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", core.ErrRetrievalFailure, ctxErr)
			}
			s.logger.Warn("retrieval strategy failed", "strategy", strategy, "meeting_id", meetingID, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", strategy, err))
			continue
		}
		return &Retrieval{Hits: hits, Strategy: strategy}, nil
	}
	return nil, fmt.Errorf("%w: %w", core.ErrRetrievalFailure, errors.Join(errs...))
}

func (s *Store) search(ctx context.Context, strategy Strategy, vector []float32, meetingID string, topK int) ([]core.ScoredRecord, error) {
	switch strategy {
	case StrategyFiltered:
		results, err := s.index.Search(ctx, s.collection, vector, &storage.Filter{MeetingID: meetingID}, topK)
		if err != nil {
			return nil, err
		}
		return s.scope(results, meetingID, topK, true), nil
	case StrategyScan:
		results, err := s.index.Search(ctx, s.collection, vector, nil, topK*s.overfetch)
		if err != nil {
			return nil, err
		}
		return s.scope(results, meetingID, topK, false), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// scope drops records of other meetings and truncates to topK. On the
// filtered path a foreign record means the index leaked and is counted as
// a scope violation; on the scan path foreign records are expected.
func (s *Store) scope(results []core.ScoredRecord, meetingID string, topK int, filtered bool) []core.ScoredRecord {
	hits := make([]core.ScoredRecord, 0, min(len(results), topK))
	for _, r := range results {
		if r.Record == nil || r.Record.MeetingID != meetingID {
			if filtered {
				s.metrics.ScopeViolations.Inc()
				s.logger.Error("dropped record from another meeting",
					"meeting_id", meetingID,
					"err", core.ErrScopeViolation)
			}
			continue
		}
		if len(hits) == topK {
			break
		}
		hits = append(hits, r)
	}
	return hits
}

// DeleteMeeting removes every record of a meeting.
func (s *Store) DeleteMeeting(ctx context.Context, meetingID string) (int, error) {
	if meetingID == "" {
		return 0, core.ErrEmptyMeetingID
	}
	return s.index.DeleteByFilter(ctx, s.collection, storage.Filter{MeetingID: meetingID})
}

// Stats describes the collection.
func (s *Store) Stats(ctx context.Context) (storage.CollectionInfo, error) {
	info, err := s.index.Info(ctx, s.collection)
	if err != nil {
		return storage.CollectionInfo{}, err
	}
	return *info, nil
}

// FormatHit renders a hit as "[H:MM:SS] speaker: text".
func FormatHit(hit core.ScoredRecord) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(hit.Record.Timestamp)
	sb.WriteString("] ")
	sb.WriteString(hit.Record.Speaker)
	sb.WriteString(": ")
	sb.WriteString(hit.Record.Text)
	return sb.String()
}
