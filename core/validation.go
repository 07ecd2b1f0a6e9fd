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


package core

import (
	"fmt"
)

// ValidateUtterances validates an ordered utterance sequence.
//
// Validation rules:
//   - SequenceIndex values start at 0 and are contiguous
//   - Speaker must not be empty
//
// NOT validated:
//   - Sentiment (unset until annotated)
//   - Text (an empty turn is still a turn)
func ValidateUtterances(utterances []Utterance) error {
	for i, u := range utterances {
		if u.SequenceIndex != i {
			return fmt.Errorf("%w: %w: position %d has index %d", ErrInvalidUtterance, ErrSequenceGap, i, u.SequenceIndex)
		}
		if u.Speaker == "" {
			return fmt.Errorf("%w: %w: position %d", ErrInvalidUtterance, ErrEmptySpeaker, i)
		}
	}
	return nil
}

// ValidateVectorRecord validates a VectorRecord before it is persisted.
func ValidateVectorRecord(record *VectorRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidVectorRecord)
	}
	if record.MeetingID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVectorRecord, ErrEmptyMeetingID)
	}
	if len(record.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidVectorRecord, ErrEmptyEmbedding)
	}
	return nil
}

// ValidateMeetingRecord validates a MeetingRecord before it is registered.
func ValidateMeetingRecord(record *MeetingRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidMeetingRecord)
	}
	if record.MeetingID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMeetingRecord, ErrEmptyMeetingID)
	}
	if err := ValidateUtterances(record.Utterances); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMeetingRecord, err)
	}
	return nil
}
