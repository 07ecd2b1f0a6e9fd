package storage

import (
	"context"

	"github.com/poiesic/minutes/core"
)

// DistanceMetric selects how vector similarity is scored.
type DistanceMetric string

const (
	// Cosine scores by the cosine of the angle between vectors.
	Cosine DistanceMetric = "cosine"
	// Dot scores by the raw dot product.
	Dot DistanceMetric = "dot"
)

// FieldMeetingID is the only payload field that can carry a secondary index.
const FieldMeetingID = "meeting_id"

// Filter restricts a search to records matching every set field.
type Filter struct {
	MeetingID string
}

// CollectionInfo describes a vector collection.
type CollectionInfo struct {
	Name      string
	Dimension int
	Metric    DistanceMetric
	Count     int
	Indexed   []string
}

// VectorIndex stores vector records and serves nearest-neighbor search.
type VectorIndex interface {
	// EnsureCollection creates a collection with a fixed dimension and metric.
	// Returns ErrAlreadyExists if a compatible collection exists, or
	// ErrDimensionMismatch if one exists with a different dimension.
	EnsureCollection(ctx context.Context, name string, dim int, metric DistanceMetric) error

	// EnsureIndex creates a secondary index on a payload field.
	// Returns ErrAlreadyExists if the index exists and ErrUnsupportedField
	// for fields that cannot be indexed.
	EnsureIndex(ctx context.Context, collection, field string) error

	// Upsert inserts or replaces records by ID in a single transaction.
	// Returns ErrCollectionNotFound or ErrDimensionMismatch on invalid input.
	Upsert(ctx context.Context, collection string, records []*core.VectorRecord) error

	// Search returns up to limit records ordered by descending score.
	// A non-nil filter requires an index on the filtered field, otherwise
	// ErrFilterUnsupported is returned. A nil filter searches every record.
	Search(ctx context.Context, collection string, vector []float32, filter *Filter, limit int) ([]core.ScoredRecord, error)

	// DeleteByFilter removes every record matching filter and returns the count removed.
	DeleteByFilter(ctx context.Context, collection string, filter Filter) (int, error)

	// DropCollection removes a collection with its records and indexes.
	// Dropping a missing collection is not an error.
	DropCollection(ctx context.Context, name string) error

	// Info describes a collection. Returns ErrCollectionNotFound if absent.
	Info(ctx context.Context, collection string) (*CollectionInfo, error)

	// Close releases resources held by the index.
	Close() error
}

// MeetingRepository is the registry of analyzed meetings.
// Records are written once at ingestion and read at question time.
type MeetingRepository interface {
	// Get retrieves a meeting by ID.
	// Returns ErrNotFound if the meeting does not exist.
	Get(ctx context.Context, meetingID string) (*core.MeetingRecord, error)

	// Put stores a meeting, replacing any record with the same ID.
	Put(ctx context.Context, record *core.MeetingRecord) error

	// List returns every meeting ordered by creation time, oldest first.
	List(ctx context.Context) ([]*core.MeetingRecord, error)

	// Delete removes a meeting. Deleting a missing meeting is not an error.
	Delete(ctx context.Context, meetingID string) error

	// Close releases resources held by the repository.
	Close() error
}
