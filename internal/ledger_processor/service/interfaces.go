package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/shared"
	ledgersvc "github.com/pooled-savings-ledger/internal/ledger/service"
)

// CommandService applies ledger commands consumed from Kafka.
// A nil error means the message can be acknowledged, whatever the outcome.
type CommandService interface {
	ProcessCommand(ctx context.Context, cmd *shared.LedgerCommand) (shared.CommandOutcome, error)
}

// CommandValidator checks a command and parses its exact amount and date fields
type CommandValidator interface {
	Validate(cmd *shared.LedgerCommand) (*ParsedCommand, error)
}

// LedgerOperations is the part of the ledger service reachable through commands
type LedgerOperations interface {
	RecordDeposit(ctx context.Context, req ledgersvc.DepositRequest) (*ledger.Event, error)
	RecordWithdrawal(ctx context.Context, req ledgersvc.WithdrawalRequest) (*ledger.Event, error)
	AccrueInterest(ctx context.Context, req ledgersvc.AccrualRequest) (*ledger.Event, error)
}

// ParsedCommand holds the typed values of a validated command
type ParsedCommand struct {
	Amount      decimal.Decimal
	AccrualDate time.Time
}
