package badger

import (
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/storage"
)

// MeetingRepository implements storage.MeetingRepository for BadgerDB.
type MeetingRepository struct {
	backend *Backend
}

var _ storage.MeetingRepository = (*MeetingRepository)(nil)

// NewMeetingRepository creates a new MeetingRepository.
func NewMeetingRepository(backend *Backend) (*MeetingRepository, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &MeetingRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *MeetingRepository) Close() error {
	return nil
}

// Get retrieves a meeting by ID.
func (r *MeetingRepository) Get(ctx context.Context, meetingID string) (*core.MeetingRecord, error) {
	var result *core.MeetingRecord
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(makeMeetingRecordKey(meetingID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		result, err = decodeMeetingRecord(item)
		return err
	})
	return result, err
}

// Put stores a meeting, replacing any record with the same ID.
func (r *MeetingRepository) Put(ctx context.Context, record *core.MeetingRecord) error {
	if err := core.ValidateMeetingRecord(record); err != nil {
		return err
	}
	value, err := storage.MarshalMeetingRecord(record)
	if err != nil {
		return err
	}
	return r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Set(makeMeetingRecordKey(record.MeetingID), value)
	})
}

// List returns every meeting ordered by creation time.
func (r *MeetingRepository) List(ctx context.Context) ([]*core.MeetingRecord, error) {
	var results []*core.MeetingRecord
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		return scanPrefix(tx, makeMeetingRecordPrefix(), true, func(item *badger.Item) error {
			record, err := decodeMeetingRecord(item)
			if err != nil {
				return err
			}
			results = append(results, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.MeetingRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return results, nil
}

// Delete removes a meeting.
func (r *MeetingRepository) Delete(ctx context.Context, meetingID string) error {
	return r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Delete(makeMeetingRecordKey(meetingID))
	})
}

func decodeMeetingRecord(item *badger.Item) (*core.MeetingRecord, error) {
	var record *core.MeetingRecord
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalMeetingRecord(val)
		return unmarshalErr
	})
	return record, err
}
