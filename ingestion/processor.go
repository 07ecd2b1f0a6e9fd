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


package ingestion

import (
	"context"

	"github.com/poiesic/minutes/core"
)

// analysis is the state a meeting accumulates as it moves through the stages.
type analysis struct {
	record *core.MeetingRecord
}

// processor is an internal interface for one stage of a meeting analysis.
// Stages run in order; each reads and extends the shared analysis.
type processor interface {
	// name identifies the stage in logs and errors.
	name() string

	// process runs the stage. A returned error aborts the analysis.
	process(ctx context.Context, a *analysis) error
}

// Annotator scores utterances with sentiment.
type Annotator interface {
	AnnotateSentiment(ctx context.Context, utterances []core.Utterance) ([]core.Utterance, error)
}

// Extractor derives structured insights from utterances.
type Extractor interface {
	ExtractInsights(ctx context.Context, utterances []core.Utterance) (core.MeetingInsights, error)
}

// Ingester stores a meeting's utterances for retrieval.
type Ingester interface {
	Ingest(ctx context.Context, utterances []core.Utterance, meetingID string) (int, error)
}

type sentimentProcessor struct {
	annotator Annotator
}

func (p *sentimentProcessor) name() string { return "sentiment" }

func (p *sentimentProcessor) process(ctx context.Context, a *analysis) error {
	annotated, err := p.annotator.AnnotateSentiment(ctx, a.record.Utterances)
	if err != nil {
		return err
	}
	a.record.Utterances = annotated
	return nil
}

type insightsProcessor struct {
	extractor Extractor
}

func (p *insightsProcessor) name() string { return "insights" }

func (p *insightsProcessor) process(ctx context.Context, a *analysis) error {
	insights, err := p.extractor.ExtractInsights(ctx, a.record.Utterances)
	if err != nil {
		return err
	}
	a.record.Insights = insights
	return nil
}
