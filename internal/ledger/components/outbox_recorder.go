package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/outbox"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/ledger/service"
)

type OutboxRecorderImpl struct {
	logger *slog.Logger
}

func NewOutboxRecorder(logger *slog.Logger) service.OutboxRecorder {
	return &OutboxRecorderImpl{logger: logger}
}

// Record writes the outbox row in the caller's transaction so it commits with the event
func (r *OutboxRecorderImpl) Record(ctx context.Context, repos store.Repositories, event *ledger.Event, now time.Time) error {
	msg, err := outbox.NewMessage(event, now)
	if err != nil {
		r.logger.Error("Failed to create outbox message (marshal payload)", "event_id", event.ID, "error", err)
		return fmt.Errorf("failed to create outbox message payload for event %s: %w", event.ID, err)
	}

	if err := repos.Outbox.Create(ctx, msg); err != nil {
		r.logger.Error("Failed to create outbox message", "event_id", event.ID, "error", err)
		return fmt.Errorf("failed to create outbox message for event %s: %w", event.ID, err)
	}

	r.logger.Debug("Outbox message created", "event_id", event.ID, "outbox_id", msg.ID)
	return nil
}
