package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pooled-savings-ledger/internal/api_gateway/service"
)

// EventHistoryHandler serves archived event history
type EventHistoryHandler struct {
	historyService service.EventHistoryService
	logger         *slog.Logger
}

func NewEventHistoryHandler(logger *slog.Logger, historyService service.EventHistoryService) *EventHistoryHandler {
	return &EventHistoryHandler{
		historyService: historyService,
		logger:         logger,
	}
}

// ListByGroup retrieves paginated event history for a group
func (h *EventHistoryHandler) ListByGroup(c *gin.Context) {
	groupID, ok := idParam(c, "group_id")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	events, total, err := h.historyService.ListGroupEvents(c.Request.Context(), groupID, pagination.Page, pagination.PerPage)
	if err != nil {
		respondError(c, h.logger, "list_group_events", err)
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, mapEventToResponse(event))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}
