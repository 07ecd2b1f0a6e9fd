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


// Package search provides hybrid semantic and conceptual search over
// analyzed meetings.
//
// The Searcher type combines three signals:
//   - Semantic search over the knowledge store's utterance embeddings
//   - Conceptual matches on the topics and named entities extracted for the meeting
//   - Verbatim keyword matching with stop-word filtering
//
// Each meeting is searched in its own scope; results from several meetings
// are merged and ranked by score.
package search
