package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/ledger/service"
)

type PostingEngineImpl struct {
	logger *slog.Logger
}

func NewPostingEngine(logger *slog.Logger) service.PostingEngine {
	return &PostingEngineImpl{logger: logger}
}

// Post validates the entries before anything is written, then stores the event and one
// posting per entry.
func (e *PostingEngineImpl) Post(ctx context.Context, repos store.Repositories, event *ledger.Event, entries []ledger.Entry) error {
	if err := ledger.ValidateEntries(entries); err != nil {
		e.logger.Warn("Rejected posting set",
			"event_id", event.ID,
			"event_type", event.Type,
			"entries", len(entries),
			"error", err,
		)
		return err
	}

	event.Attach(entries)

	if err := repos.Events.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create event %s: %w", event.ID, err)
	}
	if err := repos.Postings.CreateBatch(ctx, event.Postings); err != nil {
		return fmt.Errorf("failed to create postings for event %s: %w", event.ID, err)
	}

	e.logger.Debug("Event posted", "event_id", event.ID, "postings", len(event.Postings))
	return nil
}
