package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/storage"
)

// deleteChunkSize bounds the keys removed per write transaction.
const deleteChunkSize = 1000

// VectorIndex implements storage.VectorIndex for BadgerDB.
// Records are scored by exhaustive scan; the meeting_id index narrows the
// scan to one meeting's records.
type VectorIndex struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a new VectorIndex.
func NewVectorIndex(backend *Backend) (*VectorIndex, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &VectorIndex{
		backend: backend,
		logger:  backend.logger.With("store", "vectors"),
	}, nil
}

// Close is a no-op; the backend owns the database handle.
func (v *VectorIndex) Close() error {
	return nil
}

// EnsureCollection creates the collection metadata if absent.
func (v *VectorIndex) EnsureCollection(ctx context.Context, name string, dim int, metric storage.DistanceMetric) error {
	if name == "" || dim <= 0 {
		return fmt.Errorf("%w: collection needs a name and a positive dimension", storage.ErrInvalidQuery)
	}
	if metric != storage.Cosine && metric != storage.Dot {
		return fmt.Errorf("%w: unknown metric %q", storage.ErrInvalidQuery, metric)
	}

	return v.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		existing, err := readCollection(tx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Dimension != dim {
				return fmt.Errorf("%w: collection %s has dimension %d, requested %d",
					storage.ErrDimensionMismatch, name, existing.Dimension, dim)
			}
			return storage.ErrAlreadyExists
		}

		info := &storage.CollectionInfo{Name: name, Dimension: dim, Metric: metric}
		v.logger.Info("created collection", "collection", name, "dimension", dim, "metric", metric)
		return tx.Set(makeCollectionKey(name), storage.MarshalCollectionInfo(info))
	})
}

// EnsureIndex marks field as indexed. Index entries for meeting_id are
// written on every upsert, so marking is all that is needed.
func (v *VectorIndex) EnsureIndex(ctx context.Context, collection, field string) error {
	if field != storage.FieldMeetingID {
		return fmt.Errorf("%w: %s", storage.ErrUnsupportedField, field)
	}

	return v.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		existing, err := readCollection(tx, collection)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, collection)
		}

		key := makeIndexKey(collection, field)
		_, err = tx.Get(key)
		if err == nil {
			return storage.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		v.logger.Info("created index", "collection", collection, "field", field)
		return tx.Set(key, []byte{1})
	})
}

// Upsert writes records and their meeting_id index entries in one transaction.
func (v *VectorIndex) Upsert(ctx context.Context, collection string, records []*core.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	return v.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		info, err := readCollection(tx, collection)
		if err != nil {
			return err
		}
		if info == nil {
			return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, collection)
		}

		for _, record := range records {
			if err := core.ValidateVectorRecord(record); err != nil {
				return err
			}
			if len(record.Embedding) != info.Dimension {
				return fmt.Errorf("%w: record %d has %d values, collection %s expects %d",
					storage.ErrDimensionMismatch, record.ID, len(record.Embedding), collection, info.Dimension)
			}

			if err := tx.Set(makeVectorRecordKey(collection, record.ID), storage.MarshalVectorRecord(record)); err != nil {
				return err
			}
			indexKey := makeMeetingIndexKey(collection, record.MeetingID, record.ID)
			if err := tx.Set(indexKey, storage.MarshalID(record.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Search scores records against vector and returns the best limit matches.
func (v *VectorIndex) Search(ctx context.Context, collection string, vector []float32, filter *storage.Filter, limit int) ([]core.ScoredRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []core.ScoredRecord
	err := v.backend.View(ctx, func(tx *badger.Txn) error {
		info, err := readCollection(tx, collection)
		if err != nil {
			return err
		}
		if info == nil {
			return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, collection)
		}
		if len(vector) != info.Dimension {
			return fmt.Errorf("%w: query has %d values, collection %s expects %d",
				storage.ErrDimensionMismatch, len(vector), collection, info.Dimension)
		}

		score := func(record *core.VectorRecord) {
			results = append(results, core.ScoredRecord{
				Record: record,
				Score:  similarity(info.Metric, vector, record.Embedding),
			})
		}

		if filter == nil {
			return scanPrefix(tx, makeVectorRecordPrefix(collection), true, func(item *badger.Item) error {
				record, err := decodeVectorRecord(item)
				if err != nil {
					return err
				}
				score(record)
				return nil
			})
		}

		if filter.MeetingID == "" {
			return fmt.Errorf("%w: empty meeting_id filter", storage.ErrInvalidQuery)
		}
		if _, err := tx.Get(makeIndexKey(collection, storage.FieldMeetingID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s is not indexed on %s", storage.ErrFilterUnsupported, collection, storage.FieldMeetingID)
			}
			return err
		}

		return scanPrefix(tx, makeMeetingIndexPrefix(collection, filter.MeetingID), false, func(item *badger.Item) error {
			id, err := decodeID(item)
			if err != nil {
				return err
			}
			record, err := readVectorRecord(tx, makeVectorRecordKey(collection, id))
			if err != nil {
				return err
			}
			if record == nil {
				// index entry without a record; the record was replaced
				return nil
			}
			score(record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return rankScored(results, limit), nil
}

// DeleteByFilter removes a meeting's records and index entries.
func (v *VectorIndex) DeleteByFilter(ctx context.Context, collection string, filter storage.Filter) (int, error) {
	if filter.MeetingID == "" {
		return 0, fmt.Errorf("%w: empty meeting_id filter", storage.ErrInvalidQuery)
	}

	var keys [][]byte
	err := v.backend.View(ctx, func(tx *badger.Txn) error {
		return scanPrefix(tx, makeMeetingIndexPrefix(collection, filter.MeetingID), false, func(item *badger.Item) error {
			id, err := decodeID(item)
			if err != nil {
				return err
			}
			keys = append(keys, item.KeyCopy(nil), makeVectorRecordKey(collection, id))
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	if err := v.deleteKeys(ctx, keys); err != nil {
		return 0, err
	}

	removed := len(keys) / 2
	if removed > 0 {
		v.logger.Debug("deleted meeting vectors", "collection", collection, "meeting_id", filter.MeetingID, "count", removed)
	}
	return removed, nil
}

// DropCollection removes the collection metadata, index markers, records
// and meeting_id index entries.
func (v *VectorIndex) DropCollection(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", storage.ErrInvalidQuery)
	}

	var keys [][]byte
	err := v.backend.View(ctx, func(tx *badger.Txn) error {
		for _, prefix := range [][]byte{
			makeCollectionKey(name),
			makeIndexPrefix(name),
			makeVectorRecordPrefix(name),
			makeMeetingIndexCollectionPrefix(name),
		} {
			err := scanPrefix(tx, prefix, false, func(item *badger.Item) error {
				keys = append(keys, item.KeyCopy(nil))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := v.deleteKeys(ctx, keys); err != nil {
		return err
	}
	if len(keys) > 0 {
		v.logger.Info("dropped collection", "collection", name, "keys", len(keys))
	}
	return nil
}

// Info describes a collection, counting its records.
func (v *VectorIndex) Info(ctx context.Context, collection string) (*storage.CollectionInfo, error) {
	var info *storage.CollectionInfo
	err := v.backend.View(ctx, func(tx *badger.Txn) error {
		var err error
		info, err = readCollection(tx, collection)
		if err != nil {
			return err
		}
		if info == nil {
			return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, collection)
		}

		err = scanPrefix(tx, makeVectorRecordPrefix(collection), false, func(*badger.Item) error {
			info.Count++
			return nil
		})
		if err != nil {
			return err
		}

		prefix := makeIndexPrefix(collection)
		return scanPrefix(tx, prefix, false, func(item *badger.Item) error {
			info.Indexed = append(info.Indexed, string(item.Key()[len(prefix):]))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Helper methods

// readCollection reads collection metadata, returning nil if absent.
func readCollection(tx *badger.Txn, name string) (*storage.CollectionInfo, error) {
	item, err := tx.Get(makeCollectionKey(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var info *storage.CollectionInfo
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		info, unmarshalErr = storage.UnmarshalCollectionInfo(val)
		return unmarshalErr
	})
	return info, err
}

// readVectorRecord reads a vector record, returning nil if absent.
func readVectorRecord(tx *badger.Txn, key []byte) (*core.VectorRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeVectorRecord(item)
}

// deleteKeys removes keys in chunks of deleteChunkSize per transaction.
func (v *VectorIndex) deleteKeys(ctx context.Context, keys [][]byte) error {
	for start := 0; start < len(keys); start += deleteChunkSize {
		end := min(start+deleteChunkSize, len(keys))
		err := v.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
			for _, key := range keys[start:end] {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeVectorRecord(item *badger.Item) (*core.VectorRecord, error) {
	var record *core.VectorRecord
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalVectorRecord(val)
		return unmarshalErr
	})
	return record, err
}

func decodeID(item *badger.Item) (core.ID, error) {
	var id core.ID
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		id, unmarshalErr = storage.UnmarshalID(val)
		return unmarshalErr
	})
	return id, err
}
