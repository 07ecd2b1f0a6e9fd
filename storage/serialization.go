// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/json"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/minutes/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

func vectorRecordSize(r *core.VectorRecord) int {
	size := varint.Uint64.Size(uint64(r.ID))
	size += ord.String.Size(r.MeetingID)
	size += varint.Int.Size(r.SequenceIndex)
	size += ord.String.Size(r.Speaker)
	size += ord.String.Size(r.Text)
	size += ord.String.Size(r.Timestamp)
	size += raw.Float64.Size(r.Sentiment)
	size += varint.PositiveInt.Size(len(r.Embedding))
	for _, f := range r.Embedding {
		size += raw.Float32.Size(f)
	}
	return size
}

// MarshalVectorRecord serializes a VectorRecord to bytes.
func MarshalVectorRecord(r *core.VectorRecord) []byte {
	buf := make([]byte, vectorRecordSize(r))
	n := varint.Uint64.Marshal(uint64(r.ID), buf)
	n += ord.String.Marshal(r.MeetingID, buf[n:])
	n += varint.Int.Marshal(r.SequenceIndex, buf[n:])
	n += ord.String.Marshal(r.Speaker, buf[n:])
	n += ord.String.Marshal(r.Text, buf[n:])
	n += ord.String.Marshal(r.Timestamp, buf[n:])
	n += raw.Float64.Marshal(r.Sentiment, buf[n:])
	n += varint.PositiveInt.Marshal(len(r.Embedding), buf[n:])
	for _, f := range r.Embedding {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf
}

// UnmarshalVectorRecord deserializes a VectorRecord from bytes.
func UnmarshalVectorRecord(data []byte) (*core.VectorRecord, error) {
	var (
		r   core.VectorRecord
		n   int
		m   int
		err error
	)
	fail := func(field string, err error) (*core.VectorRecord, error) {
		return nil, fmt.Errorf("%w: vector record %s: %w", ErrSerializationFailed, field, err)
	}

	id, m, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return fail("id", err)
	}
	r.ID = core.ID(id)
	n += m
	if r.MeetingID, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return fail("meeting_id", err)
	}
	n += m
	if r.SequenceIndex, m, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return fail("sequence_index", err)
	}
	n += m
	if r.Speaker, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return fail("speaker", err)
	}
	n += m
	if r.Text, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return fail("text", err)
	}
	n += m
	if r.Timestamp, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return fail("timestamp", err)
	}
	n += m
	if r.Sentiment, m, err = raw.Float64.Unmarshal(data[n:]); err != nil {
		return fail("sentiment", err)
	}
	n += m

	length, m, err := varint.PositiveInt.Unmarshal(data[n:])
	if err != nil {
		return fail("embedding length", err)
	}
	n += m
	if length < 0 || len(data)-n < length*4 {
		return nil, fmt.Errorf("%w: embedding of %d values", ErrTruncatedData, length)
	}
	r.Embedding = make([]float32, length)
	for i := range r.Embedding {
		if r.Embedding[i], m, err = raw.Float32.Unmarshal(data[n:]); err != nil {
			return fail("embedding", err)
		}
		n += m
	}
	return &r, nil
}

// MarshalCollectionInfo serializes the persistent part of a CollectionInfo.
// Count and Indexed are derived at read time and are not stored.
func MarshalCollectionInfo(info *CollectionInfo) []byte {
	size := ord.String.Size(info.Name) +
		varint.PositiveInt.Size(info.Dimension) +
		ord.String.Size(string(info.Metric))
	buf := make([]byte, size)
	n := ord.String.Marshal(info.Name, buf)
	n += varint.PositiveInt.Marshal(info.Dimension, buf[n:])
	ord.String.Marshal(string(info.Metric), buf[n:])
	return buf
}

// UnmarshalCollectionInfo deserializes a CollectionInfo written by MarshalCollectionInfo.
func UnmarshalCollectionInfo(data []byte) (*CollectionInfo, error) {
	var info CollectionInfo
	name, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: collection name: %w", ErrSerializationFailed, err)
	}
	info.Name = name
	dim, m, err := varint.PositiveInt.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: collection dimension: %w", ErrSerializationFailed, err)
	}
	info.Dimension = dim
	n += m
	metric, _, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: collection metric: %w", ErrSerializationFailed, err)
	}
	info.Metric = DistanceMetric(metric)
	return &info, nil
}

// MarshalMeetingRecord serializes a MeetingRecord as JSON.
func MarshalMeetingRecord(record *core.MeetingRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalMeetingRecord deserializes a MeetingRecord from JSON.
func UnmarshalMeetingRecord(data []byte) (*core.MeetingRecord, error) {
	var record core.MeetingRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}
