package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/shared"
	ledgersvc "github.com/pooled-savings-ledger/internal/ledger/service"
)

// MockCommandService mocks the CommandService interface
type MockCommandService struct {
	mock.Mock
}

func (m *MockCommandService) ProcessCommand(ctx context.Context, cmd *shared.LedgerCommand) (shared.CommandOutcome, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(shared.CommandOutcome), args.Error(1)
}

type MockCommandValidator struct {
	mock.Mock
}

func (m *MockCommandValidator) Validate(cmd *shared.LedgerCommand) (*ParsedCommand, error) {
	args := m.Called(cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ParsedCommand), args.Error(1)
}

type MockLedgerOperations struct {
	mock.Mock
}

func (m *MockLedgerOperations) event(args mock.Arguments) (*ledger.Event, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Event), args.Error(1)
}

func (m *MockLedgerOperations) RecordDeposit(ctx context.Context, req ledgersvc.DepositRequest) (*ledger.Event, error) {
	return m.event(m.Called(ctx, req))
}

func (m *MockLedgerOperations) RecordWithdrawal(ctx context.Context, req ledgersvc.WithdrawalRequest) (*ledger.Event, error) {
	return m.event(m.Called(ctx, req))
}

func (m *MockLedgerOperations) AccrueInterest(ctx context.Context, req ledgersvc.AccrualRequest) (*ledger.Event, error) {
	return m.event(m.Called(ctx, req))
}
