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

import "errors"

// Failure categories of the meeting pipeline. Only GenerationFailure (and
// ingestion batch failures) reach callers; the rest are recovered locally
// and replaced with a documented default.
var (
	// ErrParseFailure indicates the extractor output could not be parsed.
	ErrParseFailure = errors.New("parse failure")

	// ErrClassificationFailure indicates a sentiment or urgency call failed.
	ErrClassificationFailure = errors.New("classification failure")

	// ErrRetrievalFailure indicates vector search was unavailable.
	ErrRetrievalFailure = errors.New("retrieval failure")

	// ErrGenerationFailure indicates every generation provider failed.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrScopeViolation indicates a retrieved record belonged to another meeting.
	ErrScopeViolation = errors.New("scope violation")
)

// Domain validation errors
var (
	// ErrInvalidUtterance indicates an Utterance failed validation.
	ErrInvalidUtterance = errors.New("invalid utterance")

	// ErrInvalidVectorRecord indicates a VectorRecord failed validation.
	ErrInvalidVectorRecord = errors.New("invalid vector record")

	// ErrInvalidMeetingRecord indicates a MeetingRecord failed validation.
	ErrInvalidMeetingRecord = errors.New("invalid meeting record")

	// ErrEmptyMeetingID indicates the meeting ID is empty.
	ErrEmptyMeetingID = errors.New("meeting id cannot be empty")

	// ErrEmptySpeaker indicates the speaker name is empty.
	ErrEmptySpeaker = errors.New("speaker cannot be empty")

	// ErrEmptyEmbedding indicates a vector record has no embedding.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")

	// ErrSequenceGap indicates sequence indexes are not contiguous from zero.
	ErrSequenceGap = errors.New("sequence indexes must be contiguous")

	// ErrInvalidUrgency indicates a requested urgency is not one of the four tiers.
	ErrInvalidUrgency = errors.New("urgency must be one of: critical, high, medium, low")
)
