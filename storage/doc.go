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


// Package storage provides the storage abstraction layer for minutes.
//
// Two interfaces decouple the pipeline from the database:
//
//   - VectorIndex: a collection of embedded utterances with a fixed dimension
//     and distance metric, searchable with an optional meeting_id filter
//   - MeetingRepository: the registry of analyzed meetings, keyed by meeting ID
//
// The badger subpackage implements both on one BadgerDB instance:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	index, _ := badger.NewVectorIndex(backend)
//	meetings, _ := badger.NewMeetingRepository(backend)
//
// Use in tests with in-memory storage:
//
//	index, meetings, backend, err := badger.NewMemoryStores()
//
// # Filtered search
//
// A filtered Search only works once EnsureIndex has been called for the
// filtered field; otherwise it fails with ErrFilterUnsupported and callers
// are expected to fall back to an unfiltered search and filter the results
// themselves.
//
// # Context Support
//
// All methods accept context.Context for cancellation. Implementations must
// be safe for concurrent use.
package storage
