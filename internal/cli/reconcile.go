package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCmd(a *app) *cobra.Command {
	var groupID int64
	var eventID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Audit event balance and pool totals",
		Long: `Audit the ledger. The report is printed either way; the command exits
non-zero when any check fails so it can gate scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventID != "" {
				result, err := a.services.Reconciliation.VerifyEventBalance(cmd.Context(), eventID)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.Balanced {
					return fmt.Errorf("event %s does not balance", eventID)
				}
				return nil
			}

			var scope *int64
			if groupID > 0 {
				scope = &groupID
			}
			report, err := a.services.Reconciliation.RunFullReconciliation(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Passed {
				return fmt.Errorf("reconciliation failed with %d violations", len(report.Violations))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "limit the audit to one group")
	cmd.Flags().StringVar(&eventID, "event", "", "check a single event instead")
	cmd.MarkFlagsMutuallyExclusive("group", "event")
	return cmd
}
