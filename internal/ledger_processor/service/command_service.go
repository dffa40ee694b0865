package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/shared"
	ledgersvc "github.com/pooled-savings-ledger/internal/ledger/service"
	"github.com/pooled-savings-ledger/internal/logger"
	"github.com/pooled-savings-ledger/internal/platform/metrics"
)

type CommandServiceImpl struct {
	validator CommandValidator
	ledger    LedgerOperations
	logger    *slog.Logger
}

func NewCommandService(
	validator CommandValidator,
	ledger LedgerOperations,
	logger *slog.Logger,
) CommandService {
	return &CommandServiceImpl{
		validator: validator,
		ledger:    ledger,
		logger:    logger,
	}
}

// ProcessCommand turns the command into a ledger request keyed by the command id, so a
// redelivered command replays the original event instead of posting twice.
func (s *CommandServiceImpl) ProcessCommand(ctx context.Context, cmd *shared.LedgerCommand) (shared.CommandOutcome, error) {
	ctx = logger.ContextWithCorrelationID(ctx, cmd.CorrelationID)
	log := logger.FromContext(ctx, s.logger).With(
		"command_id", cmd.CommandID.String(),
		"command_type", cmd.Type,
		"group_id", cmd.GroupID,
	)

	log.Info("Processing ledger command", "member_id", cmd.MemberID, "amount", cmd.Amount)

	parsed, err := s.validator.Validate(cmd)
	if err != nil {
		log.Warn("Ledger command rejected by validation", "error", err)
		return s.done(cmd, shared.CommandOutcomeRejected, nil)
	}

	event, err := s.apply(ctx, cmd, parsed)
	if err != nil {
		if ledgersvc.IsRejection(err) {
			log.Warn("Ledger command rejected", "error", err)
			return s.done(cmd, shared.CommandOutcomeRejected, nil)
		}
		log.Error("Ledger command failed", "error", err)
		return s.done(cmd, shared.CommandOutcomeFailed,
			fmt.Errorf("failed to process command %s: %w", cmd.CommandID.String(), err))
	}

	log.Info("Ledger command applied", "event_id", event.ID, "event_type", event.Type)
	return s.done(cmd, shared.CommandOutcomeApplied, nil)
}

func (s *CommandServiceImpl) apply(ctx context.Context, cmd *shared.LedgerCommand, parsed *ParsedCommand) (*ledger.Event, error) {
	key := cmd.CommandID.String()

	switch cmd.Type {
	case shared.CommandTypeDeposit:
		return s.ledger.RecordDeposit(ctx, ledgersvc.DepositRequest{
			MemberID:       cmd.MemberID,
			GroupID:        cmd.GroupID,
			Amount:         parsed.Amount,
			Ref:            cmd.Ref,
			CreatedBy:      cmd.CreatedBy,
			IdempotencyKey: key,
		})
	case shared.CommandTypeWithdrawal:
		return s.ledger.RecordWithdrawal(ctx, ledgersvc.WithdrawalRequest{
			MemberID:       cmd.MemberID,
			GroupID:        cmd.GroupID,
			Amount:         parsed.Amount,
			Ref:            cmd.Ref,
			CreatedBy:      cmd.CreatedBy,
			IdempotencyKey: key,
		})
	case shared.CommandTypeInterestAccrual:
		return s.ledger.AccrueInterest(ctx, ledgersvc.AccrualRequest{
			GroupID:        cmd.GroupID,
			AccrualDate:    parsed.AccrualDate,
			TotalInterest:  parsed.Amount,
			Ref:            cmd.Ref,
			CreatedBy:      cmd.CreatedBy,
			IdempotencyKey: key,
		})
	}
	return nil, shared.ErrInvalidCommandType
}

func (s *CommandServiceImpl) done(cmd *shared.LedgerCommand, outcome shared.CommandOutcome, err error) (shared.CommandOutcome, error) {
	metrics.CommandsProcessed.WithLabelValues(string(cmd.Type), string(outcome)).Inc()
	return outcome, err
}
