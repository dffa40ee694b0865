package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/logger"
)

// respondError maps a service error onto the HTTP contract. Domain rejections carry their
// message to the client; anything else is logged and answered with an opaque 500.
func respondError(c *gin.Context, log *slog.Logger, operation string, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount{}):
		RespondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, ledger.ErrEmptyPostingSet):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, ledger.ErrUnknownAccount{}):
		RespondWithError(c, http.StatusBadRequest, "UNKNOWN_ACCOUNT", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds{}):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, ledger.ErrLedgerImbalance{}):
		RespondUnprocessable(c, "LEDGER_IMBALANCE", err.Error())
	case errors.Is(err, membership.ErrMemberNotInGroup{}):
		RespondUnprocessable(c, "MEMBER_NOT_IN_GROUP", err.Error())
	case errors.Is(err, tax.ErrAlreadyFinalized{}):
		RespondConflict(c, "ALREADY_FINALIZED", err.Error())
	case errors.Is(err, ledger.ErrEventNotFound{}),
		errors.Is(err, tax.ErrReportNotFound{}),
		errors.Is(err, membership.ErrGroupNotFound{}),
		errors.Is(err, membership.ErrMemberNotFound{}):
		RespondNotFound(c, err.Error())
	default:
		logger.FromContext(c.Request.Context(), log).Error("Request failed",
			"operation", operation,
			"error", err,
		)
		RespondInternalError(c)
	}
}
