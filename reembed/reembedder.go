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


package reembed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// ReportInterval is how often to report progress (number of utterances)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per meeting
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Ingester replaces the stored utterances of a meeting.
// It is satisfied by *knowledge.Store.
type Ingester interface {
	Ingest(ctx context.Context, utterances []core.Utterance, meetingID string) (int, error)
}

// Rebuilder is implemented by ingesters whose storage must be recreated
// when the embedding dimension changes. It is satisfied by *knowledge.Store.
type Rebuilder interface {
	Rebuild(ctx context.Context) (bool, error)
}

// Result summarizes a reembedding run.
type Result struct {
	Meetings   int
	Utterances int
	Failed     []string
	// Rebuilt reports that the collection was recreated for a new
	// embedding dimension.
	Rebuilt bool
}

// Reembedder re-ingests registered meetings into the knowledge store.
type Reembedder struct {
	meetings storage.MeetingRepository
	ingester Ingester
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(meetings storage.MeetingRepository, ingester Ingester, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		meetings: meetings,
		ingester: ingester,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reembedder"),
	}
}

// Run re-embeds the given meetings, or every registered meeting when none
// are named. A meeting that still fails after its retries is recorded in
// the result and the run continues; the returned error then wraps
// ErrIncomplete.
//
// When the ingester is a Rebuilder and the embedding dimension changed, the
// collection is recreated first and every registered meeting is re-embedded,
// whatever meetings were named.
func (r *Reembedder) Run(ctx context.Context, meetingIDs ...string) (*Result, error) {
	result := &Result{}
	if rebuilder, ok := r.ingester.(Rebuilder); ok {
		rebuilt, err := rebuilder.Rebuild(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild collection: %w", err)
		}
		if rebuilt {
			result.Rebuilt = true
			if len(meetingIDs) > 0 {
				r.logger.Warn("collection rebuilt, reembedding all meetings", "requested", len(meetingIDs))
			}
			meetingIDs = nil
			fmt.Fprintf(r.progress, "Embedding dimension changed; rebuilt the collection\n")
		}
	}

	records, err := r.load(ctx, meetingIDs)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		fmt.Fprintf(r.progress, "No meetings found in database (0 meetings)\n")
		return result, nil
	}

	total := 0
	for _, record := range records {
		total += len(record.Utterances)
	}
	fmt.Fprintf(r.progress, "Starting reembedding of %d meetings (%d utterances)\n", len(records), total)

	tracker := NewProgressTracker(r.progress, "utterances", total, r.config.ReportInterval)
	tracker.Start()

	for _, record := range records {
		var stored int
		err := RetryWithBackoff(ctx, func(ctx context.Context) error {
			var ingestErr error
			stored, ingestErr = r.ingester.Ingest(ctx, record.Utterances, record.MeetingID)
			return ingestErr
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			r.logger.Error("reembedding failed", "meeting_id", record.MeetingID, "err", err)
			result.Failed = append(result.Failed, record.MeetingID)
			tracker.Increment(len(record.Utterances))
			continue
		}

		if record.StoredCount != stored {
			record.StoredCount = stored
			if err := r.meetings.Put(ctx, record); err != nil {
				return result, fmt.Errorf("failed to update %s: %w", record.MeetingID, err)
			}
		}

		result.Meetings++
		result.Utterances += stored
		tracker.Increment(len(record.Utterances))
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d meetings in %v\n",
		result.Meetings, elapsed.Round(time.Millisecond))

	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%w: %d of %d meetings failed", ErrIncomplete, len(result.Failed), len(records))
	}
	return result, nil
}

func (r *Reembedder) load(ctx context.Context, meetingIDs []string) ([]*core.MeetingRecord, error) {
	if len(meetingIDs) == 0 {
		records, err := r.meetings.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list meetings: %w", err)
		}
		return records, nil
	}

	records := make([]*core.MeetingRecord, 0, len(meetingIDs))
	for _, id := range meetingIDs {
		record, err := r.meetings.Get(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("meeting %s: %w", id, err)
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
