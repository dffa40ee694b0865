package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/api_gateway/service"
	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/share"
	ledgersvc "github.com/pooled-savings-ledger/internal/ledger/service"
	"github.com/pooled-savings-ledger/internal/money"
)

// LedgerHandler handles HTTP requests that post to or read from the ledger
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func parseAmount(c *gin.Context, field, raw string) (decimal.Decimal, bool) {
	amount, err := money.Parse(raw)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", field+": "+err.Error())
		return decimal.Zero, false
	}
	return amount, true
}

// Deposit records cash paid into the group's pool by a member
func (h *LedgerHandler) Deposit(c *gin.Context) {
	groupID, ok := idParam(c, "group_id")
	if !ok {
		return
	}
	var req MemberAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, ok := parseAmount(c, "amount", req.Amount)
	if !ok {
		return
	}

	event, err := h.ledgerService.RecordDeposit(c.Request.Context(), ledgersvc.DepositRequest{
		MemberID:       req.MemberID,
		GroupID:        groupID,
		Amount:         amount,
		Ref:            req.Ref,
		CreatedBy:      req.CreatedBy,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		respondError(c, h.logger, "deposit", err)
		return
	}
	RespondCreated(c, mapEventToResponse(event))
}

// Withdraw returns principal to a member
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	groupID, ok := idParam(c, "group_id")
	if !ok {
		return
	}
	var req MemberAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, ok := parseAmount(c, "amount", req.Amount)
	if !ok {
		return
	}

	event, err := h.ledgerService.RecordWithdrawal(c.Request.Context(), ledgersvc.WithdrawalRequest{
		MemberID:       req.MemberID,
		GroupID:        groupID,
		Amount:         amount,
		Ref:            req.Ref,
		CreatedBy:      req.CreatedBy,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		respondError(c, h.logger, "withdrawal", err)
		return
	}
	RespondCreated(c, mapEventToResponse(event))
}

// Accrue distributes interest earned by the pool on accrual_date
func (h *LedgerHandler) Accrue(c *gin.Context) {
	groupID, ok := idParam(c, "group_id")
	if !ok {
		return
	}
	var req AccrualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	accrualDate, err := time.Parse(share.DateLayout, strings.TrimSpace(req.AccrualDate))
	if err != nil {
		RespondBadRequest(c, "accrual_date must be formatted as "+share.DateLayout)
		return
	}
	total, ok := parseAmount(c, "total_interest", req.TotalInterest)
	if !ok {
		return
	}

	event, err := h.ledgerService.AccrueInterest(c.Request.Context(), ledgersvc.AccrualRequest{
		GroupID:        groupID,
		AccrualDate:    accrualDate,
		TotalInterest:  total,
		Ref:            req.Ref,
		CreatedBy:      req.CreatedBy,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		respondError(c, h.logger, "interest_accrual", err)
		return
	}
	RespondCreated(c, mapEventToResponse(event))
}

// Correct posts an arbitrary balanced entry set as a correction event
func (h *LedgerHandler) Correct(c *gin.Context) {
	var req CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entries := make([]ledger.Entry, 0, len(req.Entries))
	for i, e := range req.Entries {
		amount, ok := parseAmount(c, "entries["+strconv.Itoa(i)+"].amount", e.Amount)
		if !ok {
			return
		}
		entries = append(entries, ledger.Entry{
			AccountID: ledger.AccountID(e.AccountID),
			MemberID:  e.MemberID,
			GroupID:   e.GroupID,
			Amount:    amount,
		})
	}

	event, err := h.ledgerService.PostCorrection(c.Request.Context(), ledgersvc.CorrectionRequest{
		GroupID:         req.GroupID,
		Entries:         entries,
		Reason:          req.Reason,
		CorrectsEventID: req.CorrectsEventID,
		Ref:             req.Ref,
		CreatedBy:       req.CreatedBy,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		respondError(c, h.logger, "correction", err)
		return
	}
	RespondCreated(c, mapEventToResponse(event))
}

// GetEvent returns an event with its postings
func (h *LedgerHandler) GetEvent(c *gin.Context) {
	event, err := h.ledgerService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get_event", err)
		return
	}
	RespondOK(c, mapEventToResponse(event))
}

func (h *LedgerHandler) GetPosition(c *gin.Context) {
	groupID, ok := idParam(c, "group_id")
	if !ok {
		return
	}
	memberID, ok := idParam(c, "member_id")
	if !ok {
		return
	}

	pos, err := h.ledgerService.GetMemberPosition(c.Request.Context(), memberID, groupID)
	if err != nil {
		respondError(c, h.logger, "get_position", err)
		return
	}
	RespondOK(c, mapPositionToResponse(pos))
}

func (h *LedgerHandler) GetPool(c *gin.Context) {
	groupID, ok := idParam(c, "group_id")
	if !ok {
		return
	}

	balance, err := h.ledgerService.GetPoolBalance(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, h.logger, "get_pool", err)
		return
	}
	RespondOK(c, PoolResponse{GroupID: groupID, PoolBalance: money.Format(balance)})
}
