package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
)

// EventHistoryServiceImpl implements EventHistoryService over the event archive
type EventHistoryServiceImpl struct {
	archiveRepo ledger.ArchiveRepository
	logger      *slog.Logger
}

func NewEventHistoryService(logger *slog.Logger, archiveRepo ledger.ArchiveRepository) EventHistoryService {
	return &EventHistoryServiceImpl{
		archiveRepo: archiveRepo,
		logger:      logger,
	}
}

// ListGroupEvents reads from the archive, which trails the ledger by one outbox poll.
func (s *EventHistoryServiceImpl) ListGroupEvents(ctx context.Context, groupID int64, page, perPage int) ([]*ledger.Event, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	events, err := s.archiveRepo.ListByGroup(ctx, groupID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to get archived events",
			"group_id", groupID,
			"page", page,
			"per_page", perPage,
			"error", err,
		)
		return nil, 0, fmt.Errorf("failed to list events for group %d: %w", groupID, err)
	}

	total, err := s.archiveRepo.CountByGroup(ctx, groupID)
	if err != nil {
		s.logger.Error("Failed to count archived events", "group_id", groupID, "error", err)
		return nil, 0, fmt.Errorf("failed to count events for group %d: %w", groupID, err)
	}

	return events, total, nil
}
