package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/outbox"
	"github.com/pooled-savings-ledger/internal/domain/shared"
	"github.com/pooled-savings-ledger/internal/platform/messaging/producers"
)

// EventPublisher delivers one outbox message to its collaborators
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl archives the committed event and then fans it out on Kafka
type EventPublisherImpl struct {
	outboxRepo  outbox.Repository
	archiveRepo ledger.ArchiveRepository
	producer    producers.EventPublisher
	logger      *slog.Logger
}

func NewEventPublisher(
	outboxRepo outbox.Repository,
	archiveRepo ledger.ArchiveRepository,
	producer producers.EventPublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo:  outboxRepo,
		archiveRepo: archiveRepo,
		producer:    producer,
		logger:      logger,
	}
}

// Publish is safe to repeat: the archive upserts by event id and consumers dedupe on it.
func (p *EventPublisherImpl) Publish(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to decode ledger event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to mark outbox message FAILED_TO_PUBLISH after decode error",
				"outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	log := p.logger.With("outbox_id", message.ID, "event_id", event.ID, "event_type", event.Type)

	if err := p.archiveRepo.Save(ctx, event); err != nil {
		log.Error("Failed to archive ledger event", "error", err)
		return fmt.Errorf("failed to archive event %s: %w", event.ID, err)
	}

	if err := p.producer.PublishEvent(ctx, event); err != nil {
		log.Error("Failed to publish ledger event to Kafka", "error", err)
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		log.Error("Failed to mark outbox message PROCESSED", "error", err)
		return fmt.Errorf("event %s published, but failed to mark outbox %d as PROCESSED: %w", event.ID, message.ID, err)
	}

	log.Info("Ledger event archived and published")
	return nil
}
