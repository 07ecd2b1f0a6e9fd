package badger

import (
	"fmt"

	"github.com/poiesic/minutes/core"
)

// Key prefixes for different data types
const (
	vectorCollectionPrefix = "veccol"
	vectorIndexPrefix      = "vecidx"
	vectorRecordPrefix     = "vecrec"
	vectorMeetingPrefix    = "vecmtg"
	meetingRecordPrefix    = "mtgrec"
)

// Collection names and meeting IDs are terminated with a NUL byte so that
// one name is never a prefix of another's keys.
const sep = "\x00"

// makeCollectionKey generates the key holding a collection's metadata.
func makeCollectionKey(collection string) []byte {
	return []byte(vectorCollectionPrefix + ":" + collection + sep)
}

// makeIndexKey generates the marker key for a secondary index on field.
// Format: prefix:collection\0field
func makeIndexKey(collection, field string) []byte {
	return []byte(vectorIndexPrefix + ":" + collection + sep + field)
}

// makeIndexPrefix generates the prefix of every index marker of a collection.
func makeIndexPrefix(collection string) []byte {
	return []byte(vectorIndexPrefix + ":" + collection + sep)
}

// makeVectorRecordKey generates the key for a vector record by ID.
// Format: prefix:collection\0id
func makeVectorRecordKey(collection string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s%s%d", vectorRecordPrefix, collection, sep, id))
}

// makeVectorRecordPrefix generates the prefix of every record of a collection.
func makeVectorRecordPrefix(collection string) []byte {
	return []byte(vectorRecordPrefix + ":" + collection + sep)
}

// makeMeetingIndexKey generates a composite key for the meeting_id index.
// Format: prefix:collection\0meetingID\0id
func makeMeetingIndexKey(collection, meetingID string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s%s%s%s%d", vectorMeetingPrefix, collection, sep, meetingID, sep, id))
}

// makeMeetingIndexPrefix generates the prefix of a meeting's index entries.
func makeMeetingIndexPrefix(collection, meetingID string) []byte {
	return []byte(vectorMeetingPrefix + ":" + collection + sep + meetingID + sep)
}

// makeMeetingIndexCollectionPrefix generates the prefix of every meeting_id
// index entry of a collection.
func makeMeetingIndexCollectionPrefix(collection string) []byte {
	return []byte(vectorMeetingPrefix + ":" + collection + sep)
}

// makeMeetingRecordKey generates the key for a registered meeting.
func makeMeetingRecordKey(meetingID string) []byte {
	return []byte(meetingRecordPrefix + ":" + meetingID)
}

// makeMeetingRecordPrefix generates the prefix of every registered meeting.
func makeMeetingRecordPrefix() []byte {
	return []byte(meetingRecordPrefix + ":")
}
