package components

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/domain/shared"
	"github.com/pooled-savings-ledger/internal/ledger_processor/service"
	"github.com/pooled-savings-ledger/internal/money"
)

type CommandValidatorImpl struct {
	logger *slog.Logger
}

func NewCommandValidator(logger *slog.Logger) service.CommandValidator {
	return &CommandValidatorImpl{logger: logger}
}

// Validate checks required fields and parses the amount and, for accruals, the accrual date.
// Sign and membership checks are left to the ledger.
func (v *CommandValidatorImpl) Validate(cmd *shared.LedgerCommand) (*service.ParsedCommand, error) {
	if err := cmd.Validate(); err != nil {
		return nil, service.ErrInvalidCommand{Field: fieldOf(err), Reason: err.Error()}
	}

	amount, err := money.Parse(cmd.Amount)
	if err != nil {
		v.logger.Debug("Unparseable command amount", "command_id", cmd.CommandID.String(), "amount", cmd.Amount)
		return nil, service.ErrInvalidCommand{Field: "amount", Reason: err.Error()}
	}

	parsed := &service.ParsedCommand{Amount: amount}
	if cmd.Type != shared.CommandTypeInterestAccrual {
		return parsed, nil
	}

	raw := strings.TrimSpace(cmd.AccrualDate)
	if raw == "" {
		return nil, service.ErrInvalidCommand{Field: "accrual_date", Reason: "required for interest accruals"}
	}
	date, err := time.Parse(share.DateLayout, raw)
	if err != nil {
		return nil, service.ErrInvalidCommand{Field: "accrual_date", Reason: "expected " + share.DateLayout}
	}
	parsed.AccrualDate = date
	return parsed, nil
}

func fieldOf(err error) string {
	switch {
	case errors.Is(err, shared.ErrMissingGroup):
		return "group_id"
	case errors.Is(err, shared.ErrMissingMember):
		return "member_id"
	}
	return "type"
}
