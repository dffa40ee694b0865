// Package cli implements ledgerctl, which drives the ledger services directly
// against a local SQLite file or the configured Postgres store.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// Run executes ledgerctl with args and releases the store whether or not the command succeeded
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate a pooled savings ledger",
		Long: `ledgerctl posts deposits, withdrawals, interest accruals and corrections,
reads member positions, audits the ledger and produces tax reports.

Example:
  ledgerctl --db ./data/ledger.db group add 1 "Riverside Circle"
  ledgerctl --db ./data/ledger.db deposit --group 1 --member 7 --amount 100.00
  ledgerctl --db ./data/ledger.db reconcile`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configName, "config", "ledgerctl", "config name, read from configs/<name>.env")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite file for local mode (overrides STORAGE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newGroupCmd(a),
		newMemberCmd(a),
		newDepositCmd(a),
		newWithdrawCmd(a),
		newAccrueCmd(a),
		newCorrectCmd(a),
		newEventCmd(a),
		newPositionCmd(a),
		newPoolCmd(a),
		newReconcileCmd(a),
		newReportCmd(a),
	)
	return rootCmd
}
