package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/minutes/storage"
)

// embeddingProcessor embeds the annotated utterances into the knowledge store.
type embeddingProcessor struct {
	ingester Ingester
	logger   *slog.Logger
}

func (p *embeddingProcessor) name() string { return "embedding" }

func (p *embeddingProcessor) process(ctx context.Context, a *analysis) error {
	stored, err := p.ingester.Ingest(ctx, a.record.Utterances, a.record.MeetingID)
	if err != nil {
		return err
	}
	if stored != len(a.record.Utterances) {
		return fmt.Errorf("stored %d of %d utterances", stored, len(a.record.Utterances))
	}
	a.record.StoredCount = stored
	p.logger.Debug("embedded utterances", "meeting_id", a.record.MeetingID, "count", stored)
	return nil
}

// registryProcessor registers the finished meeting.
type registryProcessor struct {
	meetings storage.MeetingRepository
}

func (p *registryProcessor) name() string { return "registry" }

func (p *registryProcessor) process(ctx context.Context, a *analysis) error {
	return p.meetings.Put(ctx, a.record)
}
