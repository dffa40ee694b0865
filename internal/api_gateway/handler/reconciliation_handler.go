package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pooled-savings-ledger/internal/api_gateway/service"
)

// ReconciliationHandler exposes the ledger audit. Findings are returned as data with 200;
// only a failure to run the audit is an error.
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

func NewReconciliationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// Run audits every group, or only ?group_id= when given
func (h *ReconciliationHandler) Run(c *gin.Context) {
	var groupID *int64
	if raw := c.Query("group_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			RespondBadRequest(c, "Invalid group_id")
			return
		}
		groupID = &id
	}

	report, err := h.reconciliationService.RunFullReconciliation(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, h.logger, "reconciliation", err)
		return
	}
	RespondOK(c, report)
}

func (h *ReconciliationHandler) EventBalance(c *gin.Context) {
	result, err := h.reconciliationService.VerifyEventBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "verify_event_balance", err)
		return
	}
	RespondOK(c, result)
}
