package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pooled-savings-ledger/internal/api_gateway/middleware"
	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	ledgersvc "github.com/pooled-savings-ledger/internal/ledger/service"
)

type MockLedgerService struct {
	mock.Mock
}

func eventResult(args mock.Arguments) (*ledger.Event, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Event), args.Error(1)
}

func (m *MockLedgerService) RecordDeposit(ctx context.Context, req ledgersvc.DepositRequest) (*ledger.Event, error) {
	return eventResult(m.Called(ctx, req))
}

func (m *MockLedgerService) RecordWithdrawal(ctx context.Context, req ledgersvc.WithdrawalRequest) (*ledger.Event, error) {
	return eventResult(m.Called(ctx, req))
}

func (m *MockLedgerService) AccrueInterest(ctx context.Context, req ledgersvc.AccrualRequest) (*ledger.Event, error) {
	return eventResult(m.Called(ctx, req))
}

func (m *MockLedgerService) PostCorrection(ctx context.Context, req ledgersvc.CorrectionRequest) (*ledger.Event, error) {
	return eventResult(m.Called(ctx, req))
}

func (m *MockLedgerService) GetEvent(ctx context.Context, id string) (*ledger.Event, error) {
	return eventResult(m.Called(ctx, id))
}

func (m *MockLedgerService) GetMemberPosition(ctx context.Context, memberID, groupID int64) (*ledgersvc.Position, error) {
	args := m.Called(ctx, memberID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgersvc.Position), args.Error(1)
}

func (m *MockLedgerService) GetPoolBalance(ctx context.Context, groupID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func reportResult(args mock.Arguments) (*tax.Report, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.Report), args.Error(1)
}

func (m *MockReportService) GenerateStatement(ctx context.Context, memberID, groupID int64, year int) (*tax.Report, error) {
	return reportResult(m.Called(ctx, memberID, groupID, year))
}

func (m *MockReportService) Generate1099INT(ctx context.Context, memberID int64, year int, payer tax.PayerInfo) (*tax.Report, error) {
	return reportResult(m.Called(ctx, memberID, year, payer))
}

func (m *MockReportService) GenerateSummary(ctx context.Context, memberID int64, year int) (*tax.Report, error) {
	return reportResult(m.Called(ctx, memberID, year))
}

func (m *MockReportService) GetReport(ctx context.Context, id string) (*tax.Report, error) {
	return reportResult(m.Called(ctx, id))
}

func (m *MockReportService) FinalizeReport(ctx context.Context, id string) (*tax.Report, error) {
	return reportResult(m.Called(ctx, id))
}

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) RunFullReconciliation(ctx context.Context, groupID *int64) (*ledgersvc.ReconciliationReport, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgersvc.ReconciliationReport), args.Error(1)
}

func (m *MockReconciliationService) VerifyEventBalance(ctx context.Context, eventID string) (*ledgersvc.EventBalance, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgersvc.EventBalance), args.Error(1)
}

type MockEventHistoryService struct {
	mock.Mock
}

func (m *MockEventHistoryService) ListGroupEvents(ctx context.Context, groupID int64, page, perPage int) ([]*ledger.Event, int64, error) {
	args := m.Called(ctx, groupID, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Event), args.Get(1).(int64), args.Error(2)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr, resp
}

// decodeData re-decodes the generic data field into out
func decodeData(t *testing.T, resp Response, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}
