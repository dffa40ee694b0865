package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	ledgersvc "github.com/pooled-savings-ledger/internal/ledger/service"
)

// LedgerService defines the write and position operations exposed over HTTP
type LedgerService interface {
	RecordDeposit(ctx context.Context, req ledgersvc.DepositRequest) (*ledger.Event, error)
	RecordWithdrawal(ctx context.Context, req ledgersvc.WithdrawalRequest) (*ledger.Event, error)
	AccrueInterest(ctx context.Context, req ledgersvc.AccrualRequest) (*ledger.Event, error)
	PostCorrection(ctx context.Context, req ledgersvc.CorrectionRequest) (*ledger.Event, error)

	// GetEvent returns ErrEventNotFound for unknown ids
	GetEvent(ctx context.Context, id string) (*ledger.Event, error)
	GetMemberPosition(ctx context.Context, memberID, groupID int64) (*ledgersvc.Position, error)
	GetPoolBalance(ctx context.Context, groupID int64) (decimal.Decimal, error)
}

// ReconciliationService defines the read-only audit operations
type ReconciliationService interface {
	RunFullReconciliation(ctx context.Context, groupID *int64) (*ledgersvc.ReconciliationReport, error)
	VerifyEventBalance(ctx context.Context, eventID string) (*ledgersvc.EventBalance, error)
}

// ReportService defines tax report generation and lifecycle
type ReportService interface {
	GenerateStatement(ctx context.Context, memberID, groupID int64, year int) (*tax.Report, error)
	Generate1099INT(ctx context.Context, memberID int64, year int, payer tax.PayerInfo) (*tax.Report, error)
	GenerateSummary(ctx context.Context, memberID int64, year int) (*tax.Report, error)
	GetReport(ctx context.Context, id string) (*tax.Report, error)
	FinalizeReport(ctx context.Context, id string) (*tax.Report, error)
}

// EventHistoryService pages through the archived event documents of a group
type EventHistoryService interface {
	// ListGroupEvents returns one page of events, newest first, and the total count
	ListGroupEvents(ctx context.Context, groupID int64, page, perPage int) ([]*ledger.Event, int64, error)
}
