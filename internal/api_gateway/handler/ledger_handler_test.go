package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	ledgersvc "github.com/pooled-savings-ledger/internal/ledger/service"
)

func depositEvent() *ledger.Event {
	event := ledger.NewEvent(ledger.EventTypeDeposit, "dep-1", ledger.Metadata{"member_id": 3, "amount": "100.00"},
		ledger.IDPtr(1), nil, time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC))
	event.Attach([]ledger.Entry{
		{AccountID: ledger.AccountPoolCash, MemberID: ledger.IDPtr(3), GroupID: ledger.IDPtr(1), Amount: decimal.RequireFromString("100")},
		{AccountID: ledger.AccountMemberPrincipal, MemberID: ledger.IDPtr(3), GroupID: ledger.IDPtr(1), Amount: decimal.RequireFromString("-100")},
	})
	return event
}

func ledgerRouter(svc *MockLedgerService) *gin.Engine {
	h := NewLedgerHandler(testLogger(), svc)
	r := setupTestRouter()
	r.POST("/groups/:group_id/deposits", h.Deposit)
	r.POST("/groups/:group_id/withdrawals", h.Withdraw)
	r.POST("/groups/:group_id/interest-accruals", h.Accrue)
	r.POST("/corrections", h.Correct)
	r.GET("/events/:id", h.GetEvent)
	r.GET("/groups/:group_id/members/:member_id/position", h.GetPosition)
	r.GET("/groups/:group_id/pool", h.GetPool)
	return r
}

func TestLedgerHandler_Deposit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &MockLedgerService{}
		event := depositEvent()
		svc.On("RecordDeposit", mock.Anything, mock.MatchedBy(func(req ledgersvc.DepositRequest) bool {
			return req.MemberID == 3 && req.GroupID == 1 && req.Amount.Equal(decimal.RequireFromString("100.00")) &&
				req.IdempotencyKey == "key-1" && req.Ref == "dep-1"
		})).Return(event, nil).Once()

		rr, resp := doRequest(t, ledgerRouter(svc), http.MethodPost, "/groups/1/deposits",
			MemberAmountRequest{MemberID: 3, Amount: "100.00", Ref: "dep-1", IdempotencyKey: "key-1"})

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.NotEmpty(t, resp.CorrelationID)
		var body EventResponse
		decodeData(t, resp, &body)
		assert.Equal(t, event.ID, body.ID)
		assert.Equal(t, "deposit", body.Type)
		require.Len(t, body.Postings, 2)
		assert.Equal(t, "100.000000", body.Postings[0].Amount)
		assert.Equal(t, "-100.000000", body.Postings[1].Amount)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name         string
		path         string
		body         any
		expectedCode int
		expectedErr  string
	}{
		{"BadGroupID", "/groups/abc/deposits", MemberAmountRequest{MemberID: 3, Amount: "1"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"MalformedJSON", "/groups/1/deposits", `{"member_id":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"MissingMember", "/groups/1/deposits", map[string]any{"amount": "1.00"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"FloatAmountRejected", "/groups/1/deposits", map[string]any{"member_id": 3, "amount": 1.5}, http.StatusBadRequest, "BAD_REQUEST"},
		{"TooManyDecimals", "/groups/1/deposits", MemberAmountRequest{MemberID: 3, Amount: "1.0000001"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"NotANumber", "/groups/1/deposits", MemberAmountRequest{MemberID: 3, Amount: "ten"}, http.StatusBadRequest, "INVALID_AMOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockLedgerService{}
			rr, resp := doRequest(t, ledgerRouter(svc), http.MethodPost, tt.path, tt.body)

			assert.Equal(t, tt.expectedCode, rr.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			svc.AssertNotCalled(t, "RecordDeposit", mock.Anything, mock.Anything)
		})
	}
}

func TestLedgerHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"InvalidAmount", ledger.ErrInvalidAmount{Amount: decimal.Zero, Reason: "must be positive"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"InsufficientFunds", ledger.ErrInsufficientFunds{MemberID: 3, GroupID: 1}, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"Imbalance", ledger.ErrLedgerImbalance{Sum: decimal.RequireFromString("0.01")}, http.StatusUnprocessableEntity, "LEDGER_IMBALANCE"},
		{"NotInGroup", membership.ErrMemberNotInGroup{MemberID: 3, GroupID: 1}, http.StatusUnprocessableEntity, "MEMBER_NOT_IN_GROUP"},
		{"GroupNotFound", membership.ErrGroupNotFound{ID: 1}, http.StatusNotFound, "NOT_FOUND"},
		{"Finalized", tax.ErrAlreadyFinalized{ReportID: "rpt_1"}, http.StatusConflict, "ALREADY_FINALIZED"},
		{"Infrastructure", errors.New("failed to record withdrawal: connection refused"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockLedgerService{}
			svc.On("RecordWithdrawal", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			rr, resp := doRequest(t, ledgerRouter(svc), http.MethodPost, "/groups/1/withdrawals",
				MemberAmountRequest{MemberID: 3, Amount: "50.00"})

			assert.Equal(t, tt.expectedCode, rr.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			if tt.expectedCode == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error.Message, "connection refused")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLedgerHandler_Accrue(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &MockLedgerService{}
		svc.On("AccrueInterest", mock.Anything, mock.MatchedBy(func(req ledgersvc.AccrualRequest) bool {
			return req.GroupID == 1 &&
				req.AccrualDate.Equal(time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)) &&
				req.TotalInterest.Equal(decimal.RequireFromString("10.00"))
		})).Return(&ledger.Event{ID: "evt_acc", Type: ledger.EventTypeInterestAccrual}, nil).Once()

		rr, _ := doRequest(t, ledgerRouter(svc), http.MethodPost, "/groups/1/interest-accruals",
			AccrualRequest{AccrualDate: "2025-03-02", TotalInterest: "10.00"})

		assert.Equal(t, http.StatusCreated, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("BadDate", func(t *testing.T) {
		svc := &MockLedgerService{}
		rr, resp := doRequest(t, ledgerRouter(svc), http.MethodPost, "/groups/1/interest-accruals",
			AccrualRequest{AccrualDate: "03/02/2025", TotalInterest: "10.00"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, resp.Error.Message, "2006-01-02")
	})
}

func TestLedgerHandler_Correct(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &MockLedgerService{}
		svc.On("PostCorrection", mock.Anything, mock.MatchedBy(func(req ledgersvc.CorrectionRequest) bool {
			return len(req.Entries) == 2 &&
				req.Entries[0].AccountID == ledger.AccountFeeIncome &&
				req.Entries[1].Amount.Equal(decimal.RequireFromString("-1.25")) &&
				req.CorrectsEventID == "evt_bad" && req.Reason == "fee reversal"
		})).Return(&ledger.Event{ID: "evt_fix", Type: ledger.EventTypeCorrection}, nil).Once()

		rr, _ := doRequest(t, ledgerRouter(svc), http.MethodPost, "/corrections", CorrectionRequest{
			GroupID:         ledger.IDPtr(1),
			Reason:          "fee reversal",
			CorrectsEventID: "evt_bad",
			Entries: []EntryRequest{
				{AccountID: "fee_income", GroupID: ledger.IDPtr(1), Amount: "1.25"},
				{AccountID: "pool_cash", GroupID: ledger.IDPtr(1), Amount: "-1.25"},
			},
		})

		assert.Equal(t, http.StatusCreated, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("NoEntries", func(t *testing.T) {
		svc := &MockLedgerService{}
		rr, _ := doRequest(t, ledgerRouter(svc), http.MethodPost, "/corrections",
			CorrectionRequest{Reason: "empty", Entries: []EntryRequest{}})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("BadEntryAmount", func(t *testing.T) {
		svc := &MockLedgerService{}
		rr, resp := doRequest(t, ledgerRouter(svc), http.MethodPost, "/corrections", CorrectionRequest{
			Reason:  "typo",
			Entries: []EntryRequest{{AccountID: "pool_cash", Amount: "1e"}},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, resp.Error.Message, "entries[0].amount")
	})
}

func TestLedgerHandler_Reads(t *testing.T) {
	t.Run("GetEvent", func(t *testing.T) {
		svc := &MockLedgerService{}
		event := depositEvent()
		svc.On("GetEvent", mock.Anything, event.ID).Return(event, nil).Once()

		rr, resp := doRequest(t, ledgerRouter(svc), http.MethodGet, "/events/"+event.ID, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		var body EventResponse
		decodeData(t, resp, &body)
		assert.Len(t, body.Postings, 2)
	})

	t.Run("GetEventNotFound", func(t *testing.T) {
		svc := &MockLedgerService{}
		svc.On("GetEvent", mock.Anything, "evt_missing").Return(nil, ledger.ErrEventNotFound{ID: "evt_missing"}).Once()

		rr, resp := doRequest(t, ledgerRouter(svc), http.MethodGet, "/events/evt_missing", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	t.Run("GetPosition", func(t *testing.T) {
		svc := &MockLedgerService{}
		svc.On("GetMemberPosition", mock.Anything, int64(3), int64(1)).Return(&ledgersvc.Position{
			MemberID:     3,
			GroupID:      1,
			Principal:    decimal.RequireFromString("100"),
			Earnings:     decimal.RequireFromString("10"),
			TotalBalance: decimal.RequireFromString("110"),
			TaxYear:      2025,
			TaxBucket:    tax.EmptyBucket(3, 1, 2025),
		}, nil).Once()

		rr, resp := doRequest(t, ledgerRouter(svc), http.MethodGet, "/groups/1/members/3/position", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		var body PositionResponse
		decodeData(t, resp, &body)
		assert.Equal(t, "100.00", body.Principal)
		assert.Equal(t, "10.00", body.Earnings)
		assert.Equal(t, "110.00", body.TotalBalance)
		assert.Equal(t, "0.00", body.TaxBucket.TaxableInterest)
	})

	t.Run("GetPool", func(t *testing.T) {
		svc := &MockLedgerService{}
		svc.On("GetPoolBalance", mock.Anything, int64(1)).Return(decimal.RequireFromString("170.5"), nil).Once()

		rr, resp := doRequest(t, ledgerRouter(svc), http.MethodGet, "/groups/1/pool", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		var body PoolResponse
		decodeData(t, resp, &body)
		assert.Equal(t, "170.50", body.PoolBalance)
	})
}
