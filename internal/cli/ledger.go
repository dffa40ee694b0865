package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/ledger/service"
	"github.com/pooled-savings-ledger/internal/money"
)

// postingFlags are shared by every command that posts an event
type postingFlags struct {
	ref       string
	key       string
	createdBy int64
}

func (f *postingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ref, "ref", "", "external reference")
	cmd.Flags().StringVar(&f.key, "idempotency-key", "", "replaying a key returns the original event")
	cmd.Flags().Int64Var(&f.createdBy, "created-by", 0, "id of the operator posting the event")
}

func (f *postingFlags) creator() *int64 {
	if f.createdBy <= 0 {
		return nil
	}
	return ledger.IDPtr(f.createdBy)
}

func newDepositCmd(a *app) *cobra.Command {
	var groupID, memberID int64
	var amount string
	var pf postingFlags

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Record cash paid into a group's pool by a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := money.Parse(amount)
			if err != nil {
				return err
			}
			event, err := a.services.Ledger.RecordDeposit(cmd.Context(), service.DepositRequest{
				MemberID:       memberID,
				GroupID:        groupID,
				Amount:         value,
				Ref:            pf.ref,
				CreatedBy:      pf.creator(),
				IdempotencyKey: pf.key,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newEventView(event))
		},
	}
	memberAmountFlags(cmd, &groupID, &memberID, &amount)
	pf.register(cmd)
	return cmd
}

func newWithdrawCmd(a *app) *cobra.Command {
	var groupID, memberID int64
	var amount string
	var pf postingFlags

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Return principal from the pool to a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := money.Parse(amount)
			if err != nil {
				return err
			}
			event, err := a.services.Ledger.RecordWithdrawal(cmd.Context(), service.WithdrawalRequest{
				MemberID:       memberID,
				GroupID:        groupID,
				Amount:         value,
				Ref:            pf.ref,
				CreatedBy:      pf.creator(),
				IdempotencyKey: pf.key,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newEventView(event))
		},
	}
	memberAmountFlags(cmd, &groupID, &memberID, &amount)
	pf.register(cmd)
	return cmd
}

func memberAmountFlags(cmd *cobra.Command, groupID, memberID *int64, amount *string) {
	cmd.Flags().Int64Var(groupID, "group", 0, "group id")
	cmd.Flags().Int64Var(memberID, "member", 0, "member id")
	cmd.Flags().StringVar(amount, "amount", "", "decimal amount, e.g. 100.00")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("amount")
}

func newAccrueCmd(a *app) *cobra.Command {
	var groupID int64
	var date, total string
	var pf postingFlags

	cmd := &cobra.Command{
		Use:   "accrue",
		Short: "Distribute interest earned by the pool using the previous day's shares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accrualDate, err := time.Parse(share.DateLayout, date)
			if err != nil {
				return fmt.Errorf("--date must be formatted as %s", share.DateLayout)
			}
			value, err := money.Parse(total)
			if err != nil {
				return err
			}
			event, err := a.services.Ledger.AccrueInterest(cmd.Context(), service.AccrualRequest{
				GroupID:        groupID,
				AccrualDate:    accrualDate,
				TotalInterest:  value,
				Ref:            pf.ref,
				CreatedBy:      pf.creator(),
				IdempotencyKey: pf.key,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newEventView(event))
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "group id")
	cmd.Flags().StringVar(&date, "date", "", "accrual date, YYYY-MM-DD")
	cmd.Flags().StringVar(&total, "interest", "", "total interest earned by the pool")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("interest")
	pf.register(cmd)
	return cmd
}

// parseEntry reads ACCOUNT[@MEMBER]=AMOUNT
func parseEntry(raw string, group *int64) (ledger.Entry, error) {
	lhs, amountRaw, ok := strings.Cut(raw, "=")
	if !ok {
		return ledger.Entry{}, fmt.Errorf("entry %q must look like ACCOUNT[@MEMBER]=AMOUNT", raw)
	}
	amount, err := money.Parse(amountRaw)
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("entry %q: %w", raw, err)
	}
	entry := ledger.Entry{GroupID: group, Amount: amount}
	account, memberRaw, hasMember := strings.Cut(lhs, "@")
	entry.AccountID = ledger.AccountID(account)
	if hasMember {
		memberID, err := parseID("member id", memberRaw)
		if err != nil {
			return ledger.Entry{}, fmt.Errorf("entry %q: %w", raw, err)
		}
		entry.MemberID = ledger.IDPtr(memberID)
	}
	return entry, nil
}

func newCorrectCmd(a *app) *cobra.Command {
	var groupID int64
	var reason, corrects string
	var rawEntries []string
	var pf postingFlags

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Post a balanced correction event",
		Example: `  ledgerctl correct --group 1 --reason "fee reversal" \
    --entry fee_income=1.25 --entry pool_cash=-1.25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var group *int64
			if groupID > 0 {
				group = ledger.IDPtr(groupID)
			}
			entries := make([]ledger.Entry, 0, len(rawEntries))
			for _, raw := range rawEntries {
				entry, err := parseEntry(raw, group)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}

			event, err := a.services.Ledger.PostCorrection(cmd.Context(), service.CorrectionRequest{
				GroupID:         group,
				Entries:         entries,
				Reason:          reason,
				CorrectsEventID: corrects,
				Ref:             pf.ref,
				CreatedBy:       pf.creator(),
				IdempotencyKey:  pf.key,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newEventView(event))
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "group the correction belongs to")
	cmd.Flags().StringVar(&reason, "reason", "", "why the correction is posted")
	cmd.Flags().StringVar(&corrects, "corrects", "", "id of the event being corrected")
	cmd.Flags().StringArrayVar(&rawEntries, "entry", nil, "ACCOUNT[@MEMBER]=AMOUNT, repeatable")
	_ = cmd.MarkFlagRequired("reason")
	_ = cmd.MarkFlagRequired("entry")
	pf.register(cmd)
	return cmd
}

func newEventCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "event EVENT_ID",
		Short: "Show an event with its postings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := a.services.Ledger.GetEvent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newEventView(event))
		},
	}
}

func newPositionCmd(a *app) *cobra.Command {
	var groupID, memberID int64
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Show a member's principal, earnings and current tax bucket in a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := a.services.Ledger.GetMemberPosition(cmd.Context(), memberID, groupID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newPositionView(pos))
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "group id")
	cmd.Flags().Int64Var(&memberID, "member", 0, "member id")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newPoolCmd(a *app) *cobra.Command {
	var groupID int64
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show the cash held by a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := a.services.Ledger.GetPoolBalance(cmd.Context(), groupID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"group_id":     groupID,
				"pool_balance": money.Format(balance),
			})
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "group id")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}
