package components

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pooled-savings-ledger/internal/config"
	"github.com/pooled-savings-ledger/internal/domain/shared"
	"github.com/pooled-savings-ledger/internal/ledger_processor/service"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestCommandValidator_Validate(t *testing.T) {
	validator := NewCommandValidator(newTestLogger())

	tests := []struct {
		name          string
		cmd           shared.LedgerCommand
		expectedField string
		check         func(t *testing.T, parsed *service.ParsedCommand)
	}{
		{
			name: "deposit parses exact amount",
			cmd:  shared.LedgerCommand{Type: shared.CommandTypeDeposit, GroupID: 1, MemberID: 2, Amount: " 100.000001 "},
			check: func(t *testing.T, parsed *service.ParsedCommand) {
				assert.Equal(t, "100.000001", parsed.Amount.String())
				assert.True(t, parsed.AccrualDate.IsZero())
			},
		},
		{
			name: "accrual parses date",
			cmd: shared.LedgerCommand{Type: shared.CommandTypeInterestAccrual, GroupID: 1,
				Amount: "10.00", AccrualDate: "2025-03-02"},
			check: func(t *testing.T, parsed *service.ParsedCommand) {
				assert.True(t, parsed.AccrualDate.Equal(time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)))
			},
		},
		{
			name: "negative amounts are left to the ledger",
			cmd:  shared.LedgerCommand{Type: shared.CommandTypeWithdrawal, GroupID: 1, MemberID: 2, Amount: "-5"},
			check: func(t *testing.T, parsed *service.ParsedCommand) {
				assert.True(t, parsed.Amount.IsNegative())
			},
		},
		{
			name:          "unknown type",
			cmd:           shared.LedgerCommand{Type: "TRANSFER", GroupID: 1, MemberID: 2, Amount: "1"},
			expectedField: "type",
		},
		{
			name:          "missing group",
			cmd:           shared.LedgerCommand{Type: shared.CommandTypeDeposit, MemberID: 2, Amount: "1"},
			expectedField: "group_id",
		},
		{
			name:          "missing member",
			cmd:           shared.LedgerCommand{Type: shared.CommandTypeDeposit, GroupID: 1, Amount: "1"},
			expectedField: "member_id",
		},
		{
			name:          "empty amount",
			cmd:           shared.LedgerCommand{Type: shared.CommandTypeDeposit, GroupID: 1, MemberID: 2},
			expectedField: "amount",
		},
		{
			name:          "too many decimals",
			cmd:           shared.LedgerCommand{Type: shared.CommandTypeDeposit, GroupID: 1, MemberID: 2, Amount: "1.0000001"},
			expectedField: "amount",
		},
		{
			name:          "accrual without date",
			cmd:           shared.LedgerCommand{Type: shared.CommandTypeInterestAccrual, GroupID: 1, Amount: "1"},
			expectedField: "accrual_date",
		},
		{
			name: "accrual with malformed date",
			cmd: shared.LedgerCommand{Type: shared.CommandTypeInterestAccrual, GroupID: 1,
				Amount: "1", AccrualDate: "02/03/2025"},
			expectedField: "accrual_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.CommandID = uuid.New()
			parsed, err := validator.Validate(&tt.cmd)

			if tt.check != nil {
				require.NoError(t, err)
				tt.check(t, parsed)
				return
			}
			require.Error(t, err)
			assert.Nil(t, parsed)
			var invalid service.ErrInvalidCommand
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.expectedField, invalid.Field)
		})
	}
}

func TestCreateCommandService(t *testing.T) {
	t.Run("PooledService", func(t *testing.T) {
		cfg := &config.Config{WorkerPool: config.WorkerPoolConfig{Size: 4}}
		svc := CreateCommandService(nil, newTestLogger(), cfg)

		pooled, ok := svc.(*service.WorkerPoolCommandService)
		require.True(t, ok)
		defer pooled.Shutdown()
		assert.Equal(t, 4, pooled.Capacity())
	})

	t.Run("ZeroSizeStillServes", func(t *testing.T) {
		cfg := &config.Config{WorkerPool: config.WorkerPoolConfig{Size: 0}}
		svc := CreateCommandService(nil, newTestLogger(), cfg)
		assert.NotNil(t, svc)
		if pooled, ok := svc.(*service.WorkerPoolCommandService); ok {
			pooled.Shutdown()
		}
	})
}
